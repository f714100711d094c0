package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/tick/internal/lib/sl"
)

var scopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

// OAuthConfig returns the device code configuration of the Microsoft
// identity platform for tenantID and clientID.
func OAuthConfig(tenantID, clientID string) *oauth2.Config {
	base := "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/"
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: base + "devicecode",
			TokenURL:      base + "token",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// TokenStore keeps the Graph token in a JSON file.
type TokenStore struct {
	Path string
}

// DefaultTokenStore returns the store at ~/.tick/auth/msgraph_tokens.json.
func DefaultTokenStore() (*TokenStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return &TokenStore{Path: filepath.Join(home, ".tick", "auth", "msgraph_tokens.json")}, nil
}

// Load returns the stored token, or nil when none has been saved yet.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to sign in again): %w", s.Path, err)
	}
	return &tok, nil
}

// Save replaces the stored token.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := atomic.WriteFile(s.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Authenticator obtains Graph tokens: from the store when still valid, by
// refreshing, or through the device code flow as a last step.
type Authenticator struct {
	Config *oauth2.Config
	Store  *TokenStore
	// Prompt receives the sign-in instructions of the device code flow.
	Prompt io.Writer
	Log    *slog.Logger
}

// Token returns a usable token.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.Store.Load()
	if err != nil {
		a.Log.Warn("ignoring saved token", sl.Err(err))
		tok = nil
	}
	if tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := a.Config.TokenSource(ctx, tok).Token()
		if err == nil {
			a.save(refreshed)
			return refreshed, nil
		}
		a.Log.Info("token refresh failed, signing in again", sl.Err(err))
	}

	resp, err := a.Config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	fmt.Fprintf(a.Prompt, "\nTo sign in, open %s and enter the code %s\n\n", resp.VerificationURI, resp.UserCode)

	tok, err = a.Config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication: %w", err)
	}
	a.save(tok)
	return tok, nil
}

func (a *Authenticator) save(tok *oauth2.Token) {
	if err := a.Store.Save(tok); err != nil {
		a.Log.Warn("could not save token", sl.Err(err))
	}
}
