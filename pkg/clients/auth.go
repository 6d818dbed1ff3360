package clients

import (
	"net/http"

	"golang.org/x/oauth2"
)

// NewBearerTransport returns a RoundTripper that sets
// "Authorization: Bearer <token>" on every request.
func NewBearerTransport(token string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
}
