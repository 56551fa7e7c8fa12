package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/worldline-go/klient"

	"github.com/woped/model-transformer/internal/config"
	"github.com/woped/model-transformer/internal/transform/errs"
)

// TokenChecker calls the external token service before a transformation is
// allowed to run.
type TokenChecker struct {
	client *klient.Client
	url    string
}

// NewTokenChecker builds a checker for the configured token service.
func NewTokenChecker(cfg config.TokenCheck) (*TokenChecker, error) {
	client, err := klient.New(
		klient.WithDisableBaseURLCheck(true),
		klient.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("create token check client: %w", err)
	}

	return &TokenChecker{client: client, url: cfg.URL}, nil
}

// Check consumes one request token. A 400 from the token service means the
// check itself failed; a 429 means the token budget is exhausted.
func (c *TokenChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build token check request: %w", err)
	}

	resp, err := c.client.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("token check request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &errs.TokenCheckUnsuccessful{}
	case http.StatusTooManyRequests:
		return &errs.NoRequestTokensAvailable{}
	}
	return nil
}
