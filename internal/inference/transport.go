package inference

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultClientTimeout         = 10 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 5 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second

	defaultMaxConnsPerHost     = 32
	defaultMaxIdleConns        = 64
	defaultMaxIdleConnsPerHost = 32

	defaultDialerTimeout   = 2 * time.Second
	defaultDialerKeepAlive = 30 * time.Second
)

// TransportConfig captures the tunables of the HTTP client and transport.
// Zero values are replaced by defaults.
type TransportConfig struct {
	Proxy func(*http.Request) (*url.URL, error)

	// ClientTimeout caps the whole request, body included.
	ClientTimeout         time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	DialerTimeout         time.Duration
	DialerKeepAlive       time.Duration

	MaxConnsPerHost     int
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

// TransportOption adjusts a TransportConfig.
type TransportOption func(*TransportConfig)

// WithClientTimeout sets the overall request deadline.
func WithClientTimeout(d time.Duration) TransportOption {
	return func(c *TransportConfig) { c.ClientTimeout = d }
}

// WithResponseHeaderTimeout sets the time allowed until response headers arrive.
func WithResponseHeaderTimeout(d time.Duration) TransportOption {
	return func(c *TransportConfig) { c.ResponseHeaderTimeout = d }
}

// WithMaxConnsPerHost bounds concurrent connections to the service.
func WithMaxConnsPerHost(n int) TransportOption {
	return func(c *TransportConfig) { c.MaxConnsPerHost = n }
}

// DefaultTransportConfig returns the library defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ClientTimeout:         defaultClientTimeout,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
		MaxConnsPerHost:       defaultMaxConnsPerHost,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		DialerTimeout:         defaultDialerTimeout,
		DialerKeepAlive:       defaultDialerKeepAlive,
		Proxy:                 http.ProxyFromEnvironment,
	}
}

// NewHTTPClient builds an *http.Client with safe defaults overridden by opts.
func NewHTTPClient(opts ...TransportOption) *http.Client {
	cfg := DefaultTransportConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sanitizeTransportConfig(&cfg)

	tr := &http.Transport{
		Proxy: cfg.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialerTimeout,
			KeepAlive: cfg.DialerKeepAlive,
		}).DialContext,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   cfg.ClientTimeout,
	}
}

func sanitizeTransportConfig(c *TransportConfig) {
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = defaultClientTimeout
	}
	// Header timeout never exceeds the overall deadline.
	if c.ResponseHeaderTimeout <= 0 || c.ResponseHeaderTimeout > c.ClientTimeout {
		c.ResponseHeaderTimeout = c.ClientTimeout
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
	if c.TLSHandshakeTimeout <= 0 {
		c.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
	}
	if c.ExpectContinueTimeout <= 0 {
		c.ExpectContinueTimeout = defaultExpectContinueTimeout
	}
	if c.DialerTimeout <= 0 {
		c.DialerTimeout = defaultDialerTimeout
	}
	if c.DialerKeepAlive <= 0 {
		c.DialerKeepAlive = defaultDialerKeepAlive
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.Proxy == nil {
		c.Proxy = http.ProxyFromEnvironment
	}
}
