package relay

import (
	"errors"
	"testing"

	"webrelay/internal/domain"
)

func TestParseEndpointDerivesBothForms(t *testing.T) {
	cases := []struct {
		in         string
		httpBase   string
		streamURL  string
	}{
		{"http://127.0.0.1:8000", "http://127.0.0.1:8000", "ws://127.0.0.1:8000/screenshot"},
		{"https://relay.example.com", "https://relay.example.com", "wss://relay.example.com/screenshot"},
		{"http://host:9000/base/", "http://host:9000/base", "ws://host:9000/base/screenshot"},
		{"  http://padded:8000 ", "http://padded:8000", "ws://padded:8000/screenshot"},
	}
	for _, tc := range cases {
		ep, err := ParseEndpoint(tc.in)
		if err != nil {
			t.Errorf("ParseEndpoint(%q): %v", tc.in, err)
			continue
		}
		if ep.HTTPBase != tc.httpBase {
			t.Errorf("ParseEndpoint(%q).HTTPBase = %q, want %q", tc.in, ep.HTTPBase, tc.httpBase)
		}
		if ep.StreamURL != tc.streamURL {
			t.Errorf("ParseEndpoint(%q).StreamURL = %q, want %q", tc.in, ep.StreamURL, tc.streamURL)
		}
	}
}

func TestParseEndpointRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "ws://host:8000", "ftp://host", "host:8000", "http://"} {
		_, err := ParseEndpoint(in)
		if err == nil {
			t.Errorf("ParseEndpoint(%q): expected error", in)
			continue
		}
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ParseEndpoint(%q): error %v is not ErrInvalidInput", in, err)
		}
	}
}
