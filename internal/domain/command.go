package domain

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies a backend command. The value doubles as the
// backend's POST path segment.
type CommandKind string

const (
	CommandNavigate CommandKind = "goto"
	CommandBack     CommandKind = "back"
	CommandForward  CommandKind = "forward"
	CommandHover    CommandKind = "hover"
	CommandClick    CommandKind = "click"
	CommandScroll   CommandKind = "scroll"
	CommandKeyPress CommandKind = "keyboard"
)

// Command is a discrete, stateless instruction to the automation backend.
// Commands carry no identifiers and expect no correlated response; the
// sender treats any 2xx status as success and never reads the body.
type Command struct {
	Kind CommandKind

	URL    string  // Navigate
	X, Y   float64 // Hover, Click — fractional position
	DX, DY float64 // Scroll — fractional deltas
	Key    string  // KeyPress — raw key identifier
}

func NavigateCommand(url string) Command   { return Command{Kind: CommandNavigate, URL: url} }
func BackCommand() Command                 { return Command{Kind: CommandBack} }
func ForwardCommand() Command              { return Command{Kind: CommandForward} }
func HoverCommand(x, y float64) Command    { return Command{Kind: CommandHover, X: x, Y: y} }
func ClickCommand(x, y float64) Command    { return Command{Kind: CommandClick, X: x, Y: y} }
func ScrollCommand(dx, dy float64) Command { return Command{Kind: CommandScroll, DX: dx, DY: dy} }
func KeyPressCommand(key string) Command   { return Command{Kind: CommandKeyPress, Key: key} }

// Path returns the backend request path for the command.
func (c Command) Path() string { return "/" + string(c.Kind) }

// Body returns the JSON request body for the command. Back and forward
// carry no payload and return nil.
func (c Command) Body() ([]byte, error) {
	switch c.Kind {
	case CommandNavigate:
		return json.Marshal(struct {
			URL string `json:"url"`
		}{c.URL})
	case CommandHover, CommandClick:
		return json.Marshal(struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}{c.X, c.Y})
	case CommandScroll:
		return json.Marshal(struct {
			DX float64 `json:"dx"`
			DY float64 `json:"dy"`
		}{c.DX, c.DY})
	case CommandKeyPress:
		return json.Marshal(struct {
			Key string `json:"key"`
		}{c.Key})
	case CommandBack, CommandForward:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown command kind %q", ErrInvalidInput, c.Kind)
	}
}

// Validate checks required fields for the command's kind.
func (c Command) Validate() error {
	switch c.Kind {
	case CommandNavigate:
		if c.URL == "" {
			return fmt.Errorf("%w: navigate requires a url", ErrInvalidInput)
		}
	case CommandKeyPress:
		if c.Key == "" {
			return fmt.Errorf("%w: keypress requires a key", ErrInvalidInput)
		}
	case CommandBack, CommandForward, CommandHover, CommandClick, CommandScroll:
	default:
		return fmt.Errorf("%w: unknown command kind %q", ErrInvalidInput, c.Kind)
	}
	return nil
}
