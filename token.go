package integrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	appDirName = "integrations"
	tokenFile  = "token.json"
)

// TokenStore holds the backend API token for persistence
type TokenStore struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

// getDataDir returns ~/.local/share/integrations
func getDataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, appDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// NewToken wraps a raw backend token. When the token is a JWT its exp claim
// becomes the expiry; the signature is not checked here.
func NewToken(raw string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: strings.TrimSpace(raw),
		TokenType:   "Bearer",
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok
}

// LoadToken loads the saved token from the data dir. It returns nil, nil when
// no token has been saved.
func LoadToken() (*oauth2.Token, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dataDir, tokenFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No token yet
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var store TokenStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return &oauth2.Token{
		AccessToken: store.AccessToken,
		TokenType:   store.TokenType,
		Expiry:      store.Expiry,
	}, nil
}

// SaveToken saves the token to the data dir with 0600 permissions
func SaveToken(token *oauth2.Token) error {
	dataDir, err := getDataDir()
	if err != nil {
		return err
	}

	store := TokenStore{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.Expiry,
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	path := filepath.Join(dataDir, tokenFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	return nil
}

// ResolveToken picks the configured token over the saved one.
func ResolveToken(configured string) (*oauth2.Token, error) {
	if configured != "" {
		return NewToken(configured), nil
	}
	tok, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if tok == nil {
		return nil, fmt.Errorf("%s: no token found - run 'integrations login' first", ErrNotConfigured)
	}
	return tok, nil
}

// AuthenticatedHTTPClient returns an HTTP client that sends token as a bearer
// credential. It keeps cookies, so the session the backend opens during OAuth
// initiate is presented again on the callback.
func AuthenticatedHTTPClient(ctx context.Context, token *oauth2.Token) (*http.Client, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%s: empty token", ErrNotConfigured)
	}
	if !token.Valid() {
		return nil, fmt.Errorf("%s: token expired at %s - run 'integrations login' again",
			ErrTokenExpired, token.Expiry.Format(time.RFC3339))
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	hc.Jar = jar
	return hc, nil
}

// CacheNamespace derives a stable, non-reversible namespace from a token so
// accounts sharing a cache server never read each other's entries.
func CacheNamespace(token *oauth2.Token) string {
	sum := sha256.Sum256([]byte(token.AccessToken))
	return hex.EncodeToString(sum[:8])
}

// IsConfigured reports whether a token has been saved by login.
func IsConfigured() bool {
	token, err := LoadToken()
	return err == nil && token != nil
}
