package auth

import (
	"errors"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds the client credentials used to obtain broker access tokens.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Validate checks the mandatory fields.
func (c Conf) Validate() error {
	if c.ClientID == "" || c.TokenURL == "" {
		return errors.New("oauth2 requires client_id and token_url")
	}
	return nil
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
