package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"webrelay/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDriver records calls and returns canned results.
type fakeDriver struct {
	mu    sync.Mutex
	calls []string

	navErr     error
	backErr    error
	forwardErr error
	pressErr   error
	hoverErr   error

	clickFocused bool
	frame        []byte
	title        string
	content      string
	url          string
}

func (d *fakeDriver) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.record("navigate %s", url)
	return d.navErr
}
func (d *fakeDriver) Back(context.Context) error    { d.record("back"); return d.backErr }
func (d *fakeDriver) Forward(context.Context) error { d.record("forward"); return d.forwardErr }
func (d *fakeDriver) Hover(_ context.Context, x, y float64) error {
	d.record("hover %.2f %.2f", x, y)
	return d.hoverErr
}
func (d *fakeDriver) Click(_ context.Context, x, y float64) (bool, error) {
	d.record("click %.2f %.2f", x, y)
	return d.clickFocused, nil
}
func (d *fakeDriver) Scroll(_ context.Context, dx, dy float64) error {
	d.record("scroll %.2f %.2f", dx, dy)
	return nil
}
func (d *fakeDriver) Press(_ context.Context, key string) error {
	d.record("press %s", key)
	return d.pressErr
}
func (d *fakeDriver) Screenshot(context.Context, int) ([]byte, error) {
	if d.frame == nil {
		return []byte{0xff, 0xd8, 0xff}, nil
	}
	return d.frame, nil
}
func (d *fakeDriver) Title(context.Context) (string, error)      { return d.title, nil }
func (d *fakeDriver) Content(context.Context) (string, error)    { return d.content, nil }
func (d *fakeDriver) PDF(context.Context) ([]byte, error)        { return []byte("%PDF-1.4"), nil }
func (d *fakeDriver) CurrentURL(context.Context) (string, error) { return d.url, nil }
func (d *fakeDriver) Close() error                               { return nil }

// startServer runs a backend server on an ephemeral port and returns
// its base URL.
func startServer(t *testing.T, driver PageDriver, journal *Journal) string {
	t.Helper()
	srv := NewServer(driver, journal, ServerConfig{
		Addr:        "127.0.0.1:0",
		FrameRate:   30,
		JPEGQuality: 70,
	}, "01TESTSESSION", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(ctx); err != nil {
			t.Errorf("server start: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for srv.BoundAddr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not bind")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return "http://" + srv.BoundAddr()
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestCommandSuccessShapes(t *testing.T) {
	driver := &fakeDriver{clickFocused: true}
	base := startServer(t, driver, nil)

	cases := []struct {
		path string
		body string
	}{
		{"/goto", `{"url":"https://example.com"}`},
		{"/hover", `{"x":0.5,"y":0.25}`},
		{"/scroll", `{"dx":0.05,"dy":-0.2}`},
		{"/keyboard", `{"key":"a"}`},
		{"/back", `{}`},
		{"/forward", `{}`},
	}
	for _, tc := range cases {
		status, resp := postJSON(t, base+tc.path, tc.body)
		if status != http.StatusOK {
			t.Errorf("POST %s status = %d, want 200", tc.path, status)
		}
		if resp["success"] != true {
			t.Errorf("POST %s response = %v, want success true", tc.path, resp)
		}
	}

	status, resp := postJSON(t, base+"/click", `{"x":0.5,"y":0.25}`)
	if status != http.StatusOK || resp["success"] != true {
		t.Fatalf("click response = %d %v", status, resp)
	}
	if resp["focused"] != true {
		t.Errorf("click should report focused, got %v", resp)
	}

	calls := driver.Calls()
	want := []string{
		"navigate https://example.com",
		"hover 0.50 0.25",
		"scroll 0.05 -0.20",
		"press a",
		"back",
		"forward",
		"click 0.50 0.25",
	}
	if len(calls) != len(want) {
		t.Fatalf("driver calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestHistoryRefusals(t *testing.T) {
	driver := &fakeDriver{
		backErr:    domain.ErrNoHistory,
		forwardErr: domain.ErrNoHistory,
	}
	base := startServer(t, driver, nil)

	status, resp := postJSON(t, base+"/back", `{}`)
	if status != http.StatusOK {
		t.Errorf("back status = %d, want 200 even on refusal", status)
	}
	if resp["success"] != false || resp["error"] != "No previous page in history" {
		t.Errorf("back response = %v", resp)
	}

	status, resp = postJSON(t, base+"/forward", `{}`)
	if status != http.StatusOK || resp["error"] != "No next page in history" {
		t.Errorf("forward response = %d %v", status, resp)
	}
}

func TestKeyboardRefusal(t *testing.T) {
	driver := &fakeDriver{pressErr: domain.ErrNoInputFocus}
	base := startServer(t, driver, nil)

	status, resp := postJSON(t, base+"/keyboard", `{"key":"a"}`)
	if status != http.StatusOK {
		t.Errorf("keyboard status = %d, want 200", status)
	}
	if resp["success"] != false || resp["error"] != "No input element is focused" {
		t.Errorf("keyboard response = %v", resp)
	}
}

func TestDriverFailureIs500(t *testing.T) {
	driver := &fakeDriver{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	base := startServer(t, driver, nil)

	status, resp := postJSON(t, base+"/goto", `{"url":"https://nope.invalid"}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("goto status = %d, want 500", status)
	}
	detail, _ := resp["detail"].(string)
	if !strings.Contains(detail, "ERR_NAME_NOT_RESOLVED") {
		t.Errorf("detail = %q, want driver error text", detail)
	}
}

func TestCommandsRequirePOST(t *testing.T) {
	base := startServer(t, &fakeDriver{}, nil)

	resp, err := http.Get(base + "/goto")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /goto status = %d, want 405", resp.StatusCode)
	}
}

func TestScreenshotStream(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0x01, 0x02, 0x03}
	driver := &fakeDriver{frame: frame}
	base := startServer(t, driver, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/screenshot"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for i := 0; i < 2; i++ {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if typ != websocket.MessageBinary {
			t.Errorf("frame %d type = %v, want binary", i, typ)
		}
		if !bytes.Equal(data, frame) {
			t.Errorf("frame %d data = %v, want %v", i, data, frame)
		}
	}
}

func TestInspectionEndpoints(t *testing.T) {
	driver := &fakeDriver{
		title:   "Example Domain",
		content: "<html><body>hi</body></html>",
		url:     "https://example.com/",
	}
	base := startServer(t, driver, nil)

	getJSON := func(path string) map[string]any {
		t.Helper()
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
		var out map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return out
	}

	if got := getJSON("/title"); got["title"] != "Example Domain" {
		t.Errorf("/title = %v", got)
	}
	if got := getJSON("/content"); got["content"] != driver.content {
		t.Errorf("/content = %v", got)
	}

	health := getJSON("/health")
	if health["status"] != "ok" || health["session"] != "01TESTSESSION" || health["url"] != driver.url {
		t.Errorf("/health = %v", health)
	}

	resp, err := http.Get(base + "/pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("/pdf content type = %q", ct)
	}
}

func TestMetricsExposition(t *testing.T) {
	driver := &fakeDriver{navErr: errors.New("boom")}
	base := startServer(t, driver, nil)

	postJSON(t, base+"/goto", `{"url":"https://example.com"}`)
	postJSON(t, base+"/hover", `{"x":0.1,"y":0.1}`)

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`webrelay_commands_total{kind="goto"} 1`,
		`webrelay_commands_total{kind="hover"} 1`,
		"webrelay_command_errors_total 1",
		"webrelay_stream_clients 0",
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCommandsAreJournaled(t *testing.T) {
	journal, err := OpenJournal(t.TempDir()+"/trace.db", "01TESTSESSION", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	driver := &fakeDriver{pressErr: domain.ErrNoInputFocus}
	base := startServer(t, driver, journal)

	postJSON(t, base+"/goto", `{"url":"https://example.com"}`)
	postJSON(t, base+"/keyboard", `{"key":"a"}`)

	entries, err := journal.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("journal entries = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Kind != "keyboard" || entries[0].OK || entries[0].Detail != "No input element is focused" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Kind != "goto" || !entries[1].OK || entries[1].Payload != `{"url":"https://example.com"}` {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}
