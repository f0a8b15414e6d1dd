package exchange

import (
	"log/slog"
	"net/http"
	"time"
)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// Option configures the Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for engine calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds each call. Zero leaves calls bounded only by the
// transport and the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used for debug output of engine calls.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
