package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// RetryPolicy describes which round trips are retried and how often
type RetryPolicy struct {
	Attempts uint
	// AttemptTimeout bounds a single attempt; zero leaves it to the client timeout
	AttemptTimeout time.Duration
	Delay          time.Duration
	MaxDelay       time.Duration
	StatusCodes    []int
	Methods        []string
}

// DefaultRetryPolicy retries throttling and gateway failures of idempotent-safe methods
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    500 * time.Millisecond,
		MaxDelay: 4 * time.Second,
		StatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		Methods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
	}
}

type retryTransport struct {
	policy    RetryPolicy
	statuses  map[int]struct{}
	methods   map[string]struct{}
	transport http.RoundTripper
}

// retryableStatusError is returned to retry-go when a response status asks for another attempt
type retryableStatusError struct {
	statusCode int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.statusCode)
}

func newRetryTransport(policy RetryPolicy, rt http.RoundTripper) *retryTransport {
	statuses := make(map[int]struct{}, len(policy.StatusCodes))
	for _, code := range policy.StatusCodes {
		statuses[code] = struct{}{}
	}
	methods := make(map[string]struct{}, len(policy.Methods))
	for _, m := range policy.Methods {
		methods[m] = struct{}{}
	}
	if policy.Attempts == 0 {
		policy.Attempts = 1
	}

	return &retryTransport{
		policy:    policy,
		statuses:  statuses,
		methods:   methods,
		transport: rt,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := t.methods[req.Method]; !ok || t.policy.Attempts == 1 {
		return t.transport.RoundTrip(req)
	}

	ctx := req.Context()

	// The body is consumed by every attempt, so keep a copy to replay it
	var payload []byte
	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		payload = data
	}

	var attempt uint
	resp, err := retry.DoWithData(
		func() (*http.Response, error) {
			attempt++

			attemptCtx, cancel := ctx, context.CancelFunc(func() {})
			if t.policy.AttemptTimeout > 0 {
				attemptCtx, cancel = context.WithTimeout(ctx, t.policy.AttemptTimeout)
			}

			attemptReq := req.Clone(attemptCtx)
			if payload != nil {
				attemptReq.Body = io.NopCloser(bytes.NewReader(payload))
				attemptReq.ContentLength = int64(len(payload))
			}

			resp, err := t.transport.RoundTrip(attemptReq)
			if err != nil {
				cancel()
				return nil, err
			}

			if _, retryable := t.statuses[resp.StatusCode]; retryable && attempt < t.policy.Attempts {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				cancel()
				return nil, &retryableStatusError{statusCode: resp.StatusCode}
			}

			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		},
		retry.Context(ctx),
		retry.Attempts(t.policy.Attempts),
		retry.Delay(t.policy.Delay),
		retry.MaxDelay(t.policy.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying HTTP outbound request",
				zap.Uint("attempt", n+1),
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	return resp, nil
}

// WithRetry wraps the HTTP transport with retries governed by policy
func WithRetry(policy RetryPolicy) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return newRetryTransport(policy, rt)
	})
}

// cancelOnClose releases the per-attempt context once the caller is done with the body
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// TotalTimeout is the worst case duration of a request under this policy
func (p RetryPolicy) TotalTimeout(attemptTimeout time.Duration) time.Duration {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return attemptTimeout*time.Duration(attempts) + p.MaxDelay*time.Duration(attempts-1)
}
