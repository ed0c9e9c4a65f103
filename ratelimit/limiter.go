package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the sustained rate allowed per client.
	DefaultRequestsPerSecond = 10.0
	// DefaultBurst is the number of requests a client may make at once.
	DefaultBurst = 20
)

// RejectedMetricName is the name of the counter of throttled requests.
const RejectedMetricName = "glueops_rate_limited_requests_total"

// KeyFunc identifies the client that made a request. Requests with an empty
// key are never throttled.
type KeyFunc func(r *http.Request) string

// RemoteHost keys requests by the host part of the remote address.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LimiterOptions represent options to create a Limiter.
type LimiterOptions struct {
	// RequestsPerSecond is the sustained rate per client. Defaults to
	// DefaultRequestsPerSecond.
	RequestsPerSecond *float64
	// Burst is the bucket size per client. Defaults to DefaultBurst.
	Burst *int
	// RetryAfter is advertised to throttled clients. Defaults to
	// DefaultRetryAfter.
	RetryAfter *time.Duration
	// KeyFunc identifies clients. Defaults to RemoteHost.
	KeyFunc KeyFunc
	// Registerer registers the rejection counter. If unset, the counter is
	// not registered.
	Registerer prometheus.Registerer
}

// NewLimiterOptions returns new uninitialized options.
func NewLimiterOptions() *LimiterOptions {
	return &LimiterOptions{}
}

// SetRequestsPerSecond sets the sustained rate per client.
func (o *LimiterOptions) SetRequestsPerSecond(rps float64) *LimiterOptions {
	o.RequestsPerSecond = &rps
	return o
}

// SetBurst sets the bucket size per client.
func (o *LimiterOptions) SetBurst(burst int) *LimiterOptions {
	o.Burst = &burst
	return o
}

// SetRetryAfter sets the wait advertised to throttled clients.
func (o *LimiterOptions) SetRetryAfter(d time.Duration) *LimiterOptions {
	o.RetryAfter = &d
	return o
}

// SetKeyFunc sets how clients are identified.
func (o *LimiterOptions) SetKeyFunc(f KeyFunc) *LimiterOptions {
	o.KeyFunc = f
	return o
}

// SetRegisterer sets the registerer for the rejection counter.
func (o *LimiterOptions) SetRegisterer(r prometheus.Registerer) *LimiterOptions {
	o.Registerer = r
	return o
}

// Validate checks that the rate and burst are positive and sets defaults
// where applicable.
func (o *LimiterOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	if o.RequestsPerSecond == nil {
		rps := DefaultRequestsPerSecond
		o.RequestsPerSecond = &rps
	}
	catcher.NewWhen(*o.RequestsPerSecond <= 0, "requests per second must be positive")
	if o.Burst == nil {
		o.Burst = utility.ToIntPtr(DefaultBurst)
	}
	catcher.NewWhen(*o.Burst <= 0, "burst must be positive")
	if o.RetryAfter == nil {
		d := DefaultRetryAfter
		o.RetryAfter = &d
	}
	catcher.NewWhen(*o.RetryAfter < 0, "retry after cannot be negative")
	if o.KeyFunc == nil {
		o.KeyFunc = RemoteHost
	}
	return catcher.Resolve()
}

// Limiter throttles each client with its own token bucket.
type Limiter struct {
	limit     rate.Limit
	burst     int
	keyFunc   KeyFunc
	responder *Responder
	rejected  prometheus.Counter

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter creates a limiter from the given options.
func NewLimiter(opts *LimiterOptions) (*Limiter, error) {
	if opts == nil {
		opts = NewLimiterOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	counterOpts := prometheus.CounterOpts{
		Name: RejectedMetricName,
		Help: "Total number of requests rejected with 429 Too Many Requests",
	}
	var rejected prometheus.Counter
	if opts.Registerer != nil {
		rejected = promauto.With(opts.Registerer).NewCounter(counterOpts)
	} else {
		rejected = prometheus.NewCounter(counterOpts)
	}

	return &Limiter{
		limit:     rate.Limit(*opts.RequestsPerSecond),
		burst:     *opts.Burst,
		keyFunc:   opts.KeyFunc,
		responder: NewResponder(*opts.RetryAfter),
		rejected:  rejected,
		buckets:   map[string]*rate.Limiter{},
	}, nil
}

// Allow reports whether the client identified by key may make a request now,
// consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow()
}

// Middleware passes allowed requests to next and answers the rest with the
// 429 responder.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.keyFunc(r)
		if key == "" || l.Allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		l.rejected.Inc()
		grip.Debug(message.Fields{
			"message": "rejecting rate limited request",
			"client":  key,
			"method":  r.Method,
			"path":    r.URL.Path,
		})
		l.responder.ServeHTTP(w, r)
	})
}
