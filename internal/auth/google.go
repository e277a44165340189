package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUserInfo is the subset of the userinfo response the tracker uses.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleProvider runs the authorization-code flow against Google.
type GoogleProvider struct {
	Config           *oauth2.Config
	UserInfoEndpoint string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				"openid",
			},
			Endpoint: google.Endpoint,
		},
		UserInfoEndpoint: GoogleUserInfoEndpoint,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the signed-in Google profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (GoogleUserInfo, error) {
	var info GoogleUserInfo

	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return info, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.Config.Client(ctx, token).Get(g.UserInfoEndpoint)
	if err != nil {
		return info, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return info, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return info, fmt.Errorf("userinfo is missing id or email")
	}
	return info, nil
}
