package resilience

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper with a circuit breaker and retries for
// idempotent requests. It fronts the background ERP traffic (catalog warming,
// configuration sync); interactive calls keep their own single-attempt
// client so a cashier action never fires twice.
type Transport struct {
	Base        http.RoundTripper
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()
	attempts := t.MaxAttempts
	if attempts <= 0 || !retryable(req) {
		attempts = 1
	}
	backoff := t.BaseBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if t.Breaker != nil && !t.Breaker.Allow(ctx) {
			if lastErr == nil {
				lastErr = ErrOpenCircuit
			}
			break
		}
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err := base.RoundTrip(attemptReq)
		if err == nil && resp.StatusCode < 500 {
			t.report(attemptReq, true)
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New(resp.Status)
			_ = resp.Body.Close()
		}
		t.report(attemptReq, false)
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(backoff, attempt, t.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (t *Transport) report(req *http.Request, success bool) {
	if t.Breaker != nil {
		t.Breaker.Report(req.Context(), success)
	}
}

// retryable limits retries to idempotent methods; a replayed POST could
// submit an invoice twice.
func retryable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}
