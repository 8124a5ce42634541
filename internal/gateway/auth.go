package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/qaforum/internal/model"
)

// AuthResult is the {user, token} payload of login and register.
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Login authenticates with email and password.
// POST /auth/login → {user, token}
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, "auth.login", http.MethodPost, "/auth/login",
		model.LoginInput{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in.
// POST /auth/register → {user, token}
func (c *Client) Register(ctx context.Context, in model.RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, "auth.register", http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the user the current credential belongs to.
// GET /auth/profile → {user}
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, "auth.profile", http.MethodGet, "/auth/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout tells the backend the session with token is over. It returns
// immediately; the request runs in the background, its result is only
// logged, and it is never retried. An empty token sends nothing.
func (c *Client) Logout(token string) {
	if token == "" {
		return
	}

	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ctx := context.Background()
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		if err := c.do(WithCredential(ctx, token), "auth.logout", http.MethodPost, "/auth/logout", nil, nil); err != nil {
			c.logger.Debug("logout notification failed", slog.String("error", err.Error()))
		}
	}()
}
