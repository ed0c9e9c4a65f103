package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.RemoteAddr = addr
	return req
}

func rejectedCount(t *testing.T, reg *prometheus.Registry) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == RejectedMetricName {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

// newStrictLimiter allows a burst of two requests per client and effectively
// never refills during a test.
func newStrictLimiter(t *testing.T, reg prometheus.Registerer) *Limiter {
	l, err := NewLimiter(NewLimiterOptions().
		SetRequestsPerSecond(0.0001).
		SetBurst(2).
		SetRetryAfter(5 * time.Second).
		SetRegisterer(reg))
	require.NoError(t, err)
	return l
}

func TestLimiterMiddleware(t *testing.T) {
	t.Run("RejectsAfterBurst", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		h := newStrictLimiter(t, reg).Middleware(okHandler())

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom("10.0.0.1:1234"))
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:1234"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"detail":"Too many requests"}`, rec.Body.String())
		assert.Equal(t, 1.0, rejectedCount(t, reg))
	})
	t.Run("KeysByHostNotPort", func(t *testing.T) {
		h := newStrictLimiter(t, nil).Middleware(okHandler())

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.1:2"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom(addr))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:3"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
	t.Run("ClientsHaveSeparateBuckets", func(t *testing.T) {
		h := newStrictLimiter(t, nil).Middleware(okHandler())

		for i := 0; i < 3; i++ {
			h.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1234"))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.2:1234"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("EmptyKeyIsNeverThrottled", func(t *testing.T) {
		l, err := NewLimiter(NewLimiterOptions().
			SetRequestsPerSecond(0.0001).
			SetBurst(1).
			SetKeyFunc(func(*http.Request) string { return "" }))
		require.NoError(t, err)
		h := l.Middleware(okHandler())

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom("10.0.0.1:1234"))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})
	t.Run("ConcurrentClientsShareOneBucket", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		h := newStrictLimiter(t, reg).Middleware(okHandler())

		var wg sync.WaitGroup
		var mu sync.Mutex
		codes := map[int]int{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, requestFrom("10.0.0.9:80"))
				mu.Lock()
				codes[rec.Code]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 2, codes[http.StatusOK])
		assert.Equal(t, 8, codes[http.StatusTooManyRequests])
		assert.Equal(t, 8.0, rejectedCount(t, reg))
	})
}

func TestLimiterOptions(t *testing.T) {
	t.Run("SetsDefaults", func(t *testing.T) {
		opts := NewLimiterOptions()
		require.NoError(t, opts.Validate())
		assert.Equal(t, DefaultRequestsPerSecond, *opts.RequestsPerSecond)
		assert.Equal(t, DefaultBurst, *opts.Burst)
		assert.Equal(t, DefaultRetryAfter, *opts.RetryAfter)
		assert.NotNil(t, opts.KeyFunc)
	})
	t.Run("RejectsNonPositiveRate", func(t *testing.T) {
		assert.Error(t, NewLimiterOptions().SetRequestsPerSecond(0).Validate())
	})
	t.Run("RejectsNonPositiveBurst", func(t *testing.T) {
		assert.Error(t, NewLimiterOptions().SetBurst(0).Validate())
	})
	t.Run("RejectsNegativeRetryAfter", func(t *testing.T) {
		assert.Error(t, NewLimiterOptions().SetRetryAfter(-time.Second).Validate())
	})
	t.Run("NewLimiterFailsWithInvalidOptions", func(t *testing.T) {
		l, err := NewLimiter(NewLimiterOptions().SetBurst(-1))
		assert.Error(t, err)
		assert.Nil(t, l)
	})
	t.Run("NilOptionsUseDefaults", func(t *testing.T) {
		l, err := NewLimiter(nil)
		require.NoError(t, err)
		assert.True(t, l.Allow("client"))
	})
}

func TestRemoteHost(t *testing.T) {
	assert.Equal(t, "192.168.1.5", RemoteHost(requestFrom("192.168.1.5:4321")))
	assert.Equal(t, "::1", RemoteHost(requestFrom("[::1]:4321")))
	assert.Equal(t, "unix-socket", RemoteHost(requestFrom("unix-socket")))
}
