// Package auth obtains OAuth2 access tokens with the client credentials
// grant. The MQTT bridge presents them as the connection password.
package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches the current token. It is safe for concurrent use.
type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// Token returns the cached access token, fetching a new one when it is
// missing or expired.
func (c *ClientCred) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	return c.refresh(ctx)
}

// ForceRefresh discards the cached token and fetches a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *ClientCred) refresh(ctx context.Context) (string, error) {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok.AccessToken, nil
}

// CredentialsProvider returns a callback yielding username and a fresh
// token on every (re)connection. A failed fetch yields an empty password
// and is reported to onErr.
func (c *ClientCred) CredentialsProvider(username string, onErr func(error)) func() (string, string) {
	return func() (string, string) {
		tok, err := c.Token(context.Background())
		if err != nil && onErr != nil {
			onErr(err)
		}
		return username, tok
	}
}
