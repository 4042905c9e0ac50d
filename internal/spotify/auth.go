package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-modify-playback-state",
	"user-read-playback-state",
	"user-library-modify",
}

// Accounts service endpoints.
const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// TokenKey is the settings key holding the cached token.
const TokenKey = "spotify.token"

// ErrNoToken is returned when no token has been cached yet.
var ErrNoToken = errors.New("spotify: not authorized, run `handtune auth`")

// TokenStore persists values as JSON. A missing key must return an error
// wrapping notFound, as passed to NewAuthenticator.
type TokenStore interface {
	GetJSON(key string, v any) error
	SetJSON(key string, v any) error
}

// AuthConfig holds the application credentials.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthURL and TokenURL override the accounts endpoints.
	AuthURL  string
	TokenURL string
}

// Authenticator runs the authorization-code flow and keeps the token cached.
type Authenticator struct {
	oauth    *oauth2.Config
	store    TokenStore
	notFound error
}

// NewAuthenticator creates an Authenticator. notFound is the store's
// missing-key error.
func NewAuthenticator(cfg AuthConfig, store TokenStore, notFound error) *Authenticator {
	endpoint := oauth2.Endpoint{AuthURL: AuthURL, TokenURL: TokenURL}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		store:    store,
		notFound: notFound,
	}
}

// CachedToken returns the stored token, or ErrNoToken.
func (a *Authenticator) CachedToken() (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := a.store.GetJSON(TokenKey, &tok); err != nil {
		if errors.Is(err, a.notFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Authorize prints the authorization URL and a QR code to out, serves the
// redirect URI until the browser returns with a code, then exchanges and
// stores the token.
func (a *Authenticator) Authorize(ctx context.Context, out io.Writer) (*oauth2.Token, error) {
	redirect, err := url.Parse(a.oauth.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", a.oauth.RedirectURL)
	}

	state := uuid.NewString()
	authURL := a.oauth.AuthCodeURL(state)

	fmt.Fprintf(out, "Open this URL to authorize handtune:\n\n%s\n\n", authURL)
	if qr, err := qrcode.New(authURL, qrcode.Medium); err == nil {
		fmt.Fprintln(out, qr.ToSmallString(false))
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}

	code, err := a.awaitCode(ctx, listener, redirect.Path, state)
	if err != nil {
		return nil, err
	}

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := a.store.SetJSON(TokenKey, tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	log.Info("Spotify authorization complete")
	return tok, nil
}

// awaitCode serves the callback on listener until one request carries a
// code for state or ctx ends.
func (a *Authenticator) awaitCode(ctx context.Context, listener net.Listener, path, state string) (string, error) {
	if path == "" {
		path = "/"
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	var once sync.Once
	deliver := func(r result) { once.Do(func() { results <- r }) }

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			deliver(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "handtune is authorized. You can close this window.")
		deliver(result{code: q.Get("code")})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	var got result

	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		select {
		case got = <-results:
			return got.err
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	return got.code, nil
}

// HTTPClient returns a client that authorizes requests with tok and refreshes
// it as needed, saving each refreshed token.
func (a *Authenticator) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	src := &savingSource{
		base:  a.oauth.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
}

// savingSource stores every token whose access token changed.
type savingSource struct {
	base  oauth2.TokenSource
	store TokenStore

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.SetJSON(TokenKey, tok); err != nil {
			log.WithError(err).Warn("Failed to save refreshed Spotify token")
		} else {
			log.Debug("Saved refreshed Spotify token")
		}
	}
	return tok, nil
}
