// Package ninjabrain provides a client for the localization tool's local
// HTTP API.
package ninjabrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/resilience"
	"github.com/GriffinCanCode/nbtrackr/internal/signal"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Client fetches the three live signals. All methods are safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *resilience.Breaker
}

// New creates a client for baseURL (e.g. http://localhost:52533/api/v1).
// Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: resilience.New(resilience.UpstreamConfig()),
	}
}

// Breaker exposes the upstream circuit breaker for health reporting.
func (c *Client) Breaker() *resilience.Breaker { return c.breaker }

// Boat fetches the boat signal.
func (c *Client) Boat(ctx context.Context) (signal.Boat, error) {
	body, err := c.get(ctx, BoatPath)
	if err != nil {
		return signal.DefaultBoat(), err
	}
	return signal.DecodeBoat(body)
}

// Stronghold fetches the stronghold signal.
func (c *Client) Stronghold(ctx context.Context) (signal.Stronghold, error) {
	body, err := c.get(ctx, StrongholdPath)
	if err != nil {
		return signal.DefaultStronghold(), err
	}
	return signal.DecodeStronghold(body)
}

// Blind fetches the blind signal.
func (c *Client) Blind(ctx context.Context) (signal.Blind, error) {
	body, err := c.get(ctx, BlindPath)
	if err != nil {
		return signal.DefaultBlind(), err
	}
	return signal.DecodeBlind(body)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := resilience.ExecuteWithResult(c.breaker, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "build request")
		}
		req.Header.Set("Accept", "application/json")
		trace.InjectHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, classify(path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, apperrors.Newf(apperrors.CodeUnavailable, "%s: status %d", path, resp.StatusCode).
				WithMetadata("endpoint", path)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
		if err != nil {
			return nil, classify(path, err)
		}
		return body, nil
	})
	if errors.Is(err, resilience.ErrOpen) {
		return nil, apperrors.Wrapf(err, apperrors.CodeUpstreamUnreachable, "%s: backing off", path)
	}
	return body, err
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return apperrors.Wrap(err, apperrors.CodeTimeout, path)
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.CodeCancelled, path)
	default:
		return apperrors.Wrap(err, apperrors.CodeUpstreamUnreachable, fmt.Sprintf("%s: localization tool not running or API disabled", path))
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
