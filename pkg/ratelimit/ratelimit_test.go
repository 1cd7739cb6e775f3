package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duapasal/remindersvc/pkg/ratelimit"
)

func TestNewLimiter_Validation(t *testing.T) {
	t.Parallel()

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()

		l, err := ratelimit.NewLimiter(nil, ratelimit.Config{Limit: 10, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
		assert.Nil(t, l)
	})

	t.Run("non-positive limit", func(t *testing.T) {
		t.Parallel()

		l, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 0, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
		assert.Nil(t, l)
	})
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 3, Window: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := l.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, result.Allowed(), "request %d should be allowed", i+1)
	}

	result, err := l.Allow(ctx, "key")
	require.NoError(t, err)
	assert.False(t, result.Allowed())
	assert.Positive(t, result.RetryAfter())
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
	require.NoError(t, err)

	first, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, first.Allowed())

	blocked, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed())

	other, err := l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.Allowed())
}

func TestMemoryStore_WindowExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := ratelimit.NewMemoryStore()

	count, _, err := store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, _, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	time.Sleep(20 * time.Millisecond)

	count, _, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "expired window should restart the count")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 2, Window: time.Minute})
	require.NoError(t, err)

	handler := ratelimit.Middleware(l, ratelimit.ByClientIP)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest().Code)
	assert.Equal(t, http.StatusOK, doRequest().Code)

	rec := doRequest()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}
