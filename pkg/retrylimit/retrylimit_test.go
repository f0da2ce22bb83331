package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusBadGateway, URL: "x"}
		}
		return nil
	}, nil, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetryStopsOnFatal(t *testing.T) {
	calls := 0
	notFound := &StatusError{Code: http.StatusNotFound, URL: "x"}
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Fatal(notFound)
	}, nil, fastConfig(5))

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, notFound)
}

func TestWithRetryExhausts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return boom
	}, nil, fastConfig(3))

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "max attempts (3)")
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetryMax(ctx, func() error { return nil }, NewAdaptiveLimiter(1, 1, 1, 0, 0.5), 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 2, 0.5)
	assert.Equal(t, 4.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 6.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 3.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 3.0, lim.CurrentLimit(), "no increase right after an error")

	for i := 0; i < 5; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit(), "clamped to min")
}

func TestCheckResponse(t *testing.T) {
	codes := map[int]struct{ err, fatal bool }{
		http.StatusOK:                  {false, false},
		http.StatusNoContent:           {false, false},
		http.StatusNotFound:            {true, true},
		http.StatusTooManyRequests:     {true, false},
		http.StatusInternalServerError: {true, false},
	}

	for code, want := range codes {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		srv.Close()

		err = CheckResponse(resp)
		assert.Equal(t, want.err, err != nil, "status %d", code)
		var fatal *FatalError
		assert.Equal(t, want.fatal, errors.As(err, &fatal), "status %d", code)
		if err != nil {
			assert.Equal(t, code == http.StatusTooManyRequests || code >= 500, DefaultClassifier(err))
		}
	}
}
