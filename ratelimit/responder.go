// Package ratelimit throttles HTTP clients and answers throttled requests
// with 429 Too Many Requests.
package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

// DefaultRetryAfter is the wait advertised to throttled clients when none is
// configured.
const DefaultRetryAfter = 30 * time.Second

// TooManyRequestsDetail is the detail message in the response body.
const TooManyRequestsDetail = "Too many requests"

type errorBody struct {
	Detail string `json:"detail"`
}

// Responder writes the response for a throttled request.
type Responder struct {
	retryAfter time.Duration
}

// NewResponder returns a responder that advertises the given wait in the
// Retry-After header. Non-positive values use DefaultRetryAfter.
func NewResponder(retryAfter time.Duration) *Responder {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &Responder{retryAfter: retryAfter}
}

// RetryAfter returns the advertised wait.
func (r *Responder) RetryAfter() time.Duration {
	return r.retryAfter
}

// ServeHTTP writes 429 with a JSON detail body and a Retry-After header in
// whole seconds.
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(r.retryAfter.Seconds()))))
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(errorBody{Detail: TooManyRequestsDetail}); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not write rate limit response body",
			"path":    req.URL.Path,
		}))
	}
}
