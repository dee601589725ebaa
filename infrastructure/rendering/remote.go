package rendering

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxResponseBytes caps the markup accepted from a remote renderer
const maxResponseBytes = 16 << 20

// maxErrorBody caps the upstream body carried in an error
const maxErrorBody = 1 << 10

// BreakerSettings tunes the circuit breaker in front of the remote renderer
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	OpenTimeout  time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// RemoteRenderer posts diagram source to a PlantUML server and returns the SVG body
type RemoteRenderer struct {
	endpoint string
	client   *http.Client
	limits   *Limits
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewRemoteRenderer creates a renderer for the PlantUML server at baseURL
func NewRemoteRenderer(baseURL string, client *http.Client, limits *Limits, breaker BreakerSettings, logger *zap.Logger) *RemoteRenderer {
	if client == nil {
		client = &http.Client{}
	}

	r := &RemoteRenderer{
		endpoint: strings.TrimRight(baseURL, "/") + "/svg",
		client:   client,
		limits:   limits,
		logger:   logger,
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "plantuml-remote",
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breaker.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// only an unhealthy server counts against the breaker, not bad diagrams
		IsSuccessful: func(err error) bool {
			var re *RenderError
			if !errors.As(err, &re) {
				return err == nil
			}
			switch re.Kind {
			case KindUpstream:
				return re.StatusCode > 0 && re.StatusCode < 500
			case KindTimeout:
				return false
			default:
				return true
			}
		},
	})

	return r
}

// Render posts source and returns the response body on 2xx
func (r *RemoteRenderer) Render(ctx context.Context, source string) (string, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.do(ctx, source)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &RenderError{
				Kind:    KindUpstream,
				Message: "PlantUML server unavailable: too many recent failures",
				Cause:   err,
			}
		}
		return "", err
	}
	return result.(string), nil
}

func (r *RemoteRenderer) do(ctx context.Context, source string) (string, error) {
	timeout := r.limits.Timeout()
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.endpoint, strings.NewReader(source))
	if err != nil {
		return "", startupError(err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", timeoutError(timeout, err)
		}
		r.logger.Warn("Remote renderer request failed", zap.String("endpoint", r.endpoint), zap.Error(err))
		return "", upstreamError(0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return "", timeoutError(timeout, err)
		}
		return "", upstreamError(0, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstreamError(resp.StatusCode, strings.TrimSpace(truncate(string(body), maxErrorBody)), nil)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", renderFailure("")
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
