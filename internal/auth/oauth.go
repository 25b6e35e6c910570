package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Profile is the normalized identity returned by a provider after the
// code exchange.
type Profile struct {
	ProviderUserID string
	Email          string
	Name           string
}

// ProviderAdapter abstracts one OAuth provider: building the consent URL
// and resolving an authorization code to a Profile.
type ProviderAdapter interface {
	ProviderID() string
	AuthURL(state string) string
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleAdapter implements ProviderAdapter for Google sign-in.
type GoogleAdapter struct {
	conf *oauth2.Config
}

// NewGoogleAdapter builds the adapter from client credentials. redirectURL
// must match the console-registered callback, e.g.
// https://app.example.com/auth/callback.
func NewGoogleAdapter(clientID, clientSecret, redirectURL string) *GoogleAdapter {
	return &GoogleAdapter{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *GoogleAdapter) ProviderID() string { return "google" }

func (g *GoogleAdapter) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleAdapter) ResolveProfile(ctx context.Context, code string) (Profile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.conf.Client(ctx, tok).Get(googleUserinfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return Profile{}, fmt.Errorf("userinfo missing subject or email")
	}

	return Profile{ProviderUserID: info.Sub, Email: info.Email, Name: info.Name}, nil
}
