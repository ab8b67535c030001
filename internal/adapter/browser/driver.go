package browser

import "context"

// PageDriver abstracts the headless page a backend session drives.
// Pointer coordinates are fractions of the viewport in [0,1]; scroll
// deltas are fractions of the viewport per tick. Implementations are
// safe for concurrent use.
type PageDriver interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// Back and Forward move through session history. They return
	// domain.ErrNoHistory when there is no entry in that direction.
	Back(ctx context.Context) error
	Forward(ctx context.Context) error

	// Hover moves the pointer to the fractional position.
	Hover(ctx context.Context, x, y float64) error
	// Click presses at the fractional position and then focuses the
	// element under the pointer. The bool reports whether an element
	// took focus.
	Click(ctx context.Context, x, y float64) (bool, error)
	// Scroll scrolls the page by fractional viewport deltas.
	Scroll(ctx context.Context, dx, dy float64) error
	// Press sends a key to the focused element. It returns
	// domain.ErrNoInputFocus unless an input, textarea, or
	// contenteditable element holds focus.
	Press(ctx context.Context, key string) error

	// Screenshot captures the viewport as JPEG at the given quality.
	Screenshot(ctx context.Context, quality int) ([]byte, error)

	// Page inspection.
	Title(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)
	PDF(ctx context.Context) ([]byte, error)
	CurrentURL(ctx context.Context) (string, error)

	Close() error
}
