package gateway

import (
	"context"
	"net/http"

	"github.com/rs/xid"
	"golang.org/x/oauth2"
)

// CredentialSource supplies the bearer credential for outgoing requests.
// ok is false when no session exists; the request then goes out anonymous.
type CredentialSource interface {
	Credential() (token string, ok bool)
}

// CredentialFunc adapts a plain function to CredentialSource.
type CredentialFunc func() (string, bool)

func (f CredentialFunc) Credential() (string, bool) { return f() }

type credentialKey struct{}

// WithCredential pins the credential used for requests made with ctx,
// overriding the CredentialSource. Used by logout, which must send the
// token that was in force even though the session has already been cleared.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// bearerTransport attaches the session credential and a request ID to every
// request so that no caller has to manage headers itself.
type bearerTransport struct {
	base        http.RoundTripper
	credentials CredentialSource
	userAgent   string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())

	if r.Header.Get("X-Request-ID") == "" {
		r.Header.Set("X-Request-ID", xid.New().String())
	}
	if t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}

	if token, ok := t.credential(r.Context()); ok {
		tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		tok.SetAuthHeader(r)
	}

	return t.base.RoundTrip(r)
}

func (t *bearerTransport) credential(ctx context.Context) (string, bool) {
	if pinned, ok := ctx.Value(credentialKey{}).(string); ok {
		return pinned, pinned != ""
	}
	if t.credentials == nil {
		return "", false
	}
	token, ok := t.credentials.Credential()
	return token, ok && token != ""
}
