package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

const (
	oauthCallbackPath    = "/oauth2callback"
	authShutdownTimeout  = 5 * time.Second
	authReadHeaderLimit  = 10 * time.Second
	tokenFilePermissions = 0o600
)

// Authorize loads the stored OAuth token, or runs the one-time consent flow:
// it logs the consent URL and blocks on a localhost callback server until the
// operator grants access or the context is canceled. The exchanged token is
// persisted for subsequent runs; refresh happens transparently afterwards.
func (s *Service) Authorize(ctx context.Context) error {
	token, err := loadToken(s.cfg.TokenPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load token: %w", err)
		}

		token, err = s.runConsentFlow(ctx)
		if err != nil {
			return err
		}

		if err := saveToken(s.cfg.TokenPath, token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}

		s.logger.Info().Str("path", s.cfg.TokenPath).Msg("OAuth token stored")
	}

	return s.initAPI(ctx, token)
}

func (s *Service) runConsentFlow(ctx context.Context) (*oauth2.Token, error) {
	authURL := s.oauth.AuthCodeURL("state", oauth2.AccessTypeOffline)
	s.logger.Info().Str("url", authURL).Msg("No stored token, authorize the bot with this link")

	codeCh := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(oauthCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		_, _ = fmt.Fprint(w, "Authorized! You can close this window.")

		select {
		case codeCh <- code:
		default:
		}
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.OAuthCallbackPort),
		Handler:           mux,
		ReadHeaderTimeout: authReadHeaderLimit,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), authShutdownTimeout)
		defer cancel()

		//nolint:contextcheck // shutdown must outlive the possibly-canceled parent context
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.cfg.OAuthCallbackPort).Msg("Waiting for OAuth2 callback")

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("consent flow interrupted: %w", ctx.Err())
	case err := <-errCh:
		return nil, fmt.Errorf("callback server: %w", err)
	case code := <-codeCh:
		token, err := s.oauth.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange code: %w", err)
		}

		return token, nil
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, tokenFilePermissions); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	return nil
}
