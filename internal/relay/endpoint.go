package relay

import (
	"fmt"
	"net/url"
	"strings"

	"webrelay/internal/domain"
)

// Endpoint holds the two derived forms of a session endpoint: the HTTP
// base commands are POSTed to, and the WebSocket URL frames stream from.
// Both always point at the same logical backend.
type Endpoint struct {
	Raw       string // as entered by the operator
	HTTPBase  string // scheme http(s), no trailing slash
	StreamURL string // scheme ws(s), path /screenshot
}

// ParseEndpoint validates s and derives both forms. It accepts http(s)
// URLs only; the streaming scheme is derived, never entered directly.
func ParseEndpoint(s string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: endpoint %q: %v", domain.ErrInvalidInput, s, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return Endpoint{}, fmt.Errorf("%w: endpoint %q: scheme must be http or https", domain.ErrInvalidInput, s)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: endpoint %q: missing host", domain.ErrInvalidInput, s)
	}

	base := *u
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	stream := base
	if stream.Scheme == "https" {
		stream.Scheme = "wss"
	} else {
		stream.Scheme = "ws"
	}
	stream.Path = base.Path + "/screenshot"

	return Endpoint{
		Raw:       s,
		HTTPBase:  base.String(),
		StreamURL: stream.String(),
	}, nil
}
