package client

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10
)

// ApiConnectionDetails locates the compute service and identifies this node to it.
type ApiConnectionDetails struct {
	Url       string        `validate:"required,url"`
	ApiKey    string        `validate:"required"`
	OrgId     string
	NodeId    string
	Timeout   time.Duration `validate:"min=0"`
	RateLimit float64       `validate:"min=0"`
	RateBurst int           `validate:"min=0"`
}

type ApiOption func(*Api)

func WithHTTPClient(httpClient *http.Client) ApiOption {
	return func(a *Api) {
		a.httpClient = httpClient
	}
}

// WithRateLimit caps the request rate. A limit of zero means unlimited.
func WithRateLimit(limit float64, burst int) ApiOption {
	return func(a *Api) {
		a.limiter = newLimiter(limit, burst)
	}
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = int(limit)
		if burst < 1 {
			burst = 1
		}
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}
