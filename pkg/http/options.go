package http

import "time"

type HttpOpts func(*httpConfig)

func WithConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.connTimeout = timeout
	}
}

func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.requestTimeout = timeout
	}
}

func WithKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.keepAlive = keepAlive
	}
}

func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.responseHeaderTimeout = timeout
	}
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.idleConnTimeout = timeout
	}
}

func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}
