// Package http builds the transport used to reach the images API:
// proxy handling, HTTP/2 settings and a retrying client.
package http

import (
	"crypto/tls"
	"fmt"
	nethttp "net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"

	"github.com/imgshelf/imgshelf/internal/config"
	"github.com/imgshelf/imgshelf/internal/constants"
	"github.com/imgshelf/imgshelf/internal/logging"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Per-request info lines are too noisy; only retries and failures are logged.
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// NewRetryClient returns a retrying HTTP client configured from cfg.
//
// Retries follow retryablehttp.DefaultRetryPolicy: connection errors, 5xx and
// 429 are retried with exponential backoff; other 4xx (401 in particular) are
// returned immediately so an expired session surfaces to the caller.
func NewRetryClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, config.ErrMissingBaseURL
	}
	if logger == nil {
		logger = logging.Nop()
	}

	httpClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.Logger = &retryLogger{logger: logger}
	retryClient.ErrorHandler = lastResponseHandler

	return retryClient.StandardClient(), nil
}

// configureHTTP2 enables HTTP/2 unless a proxy is active or DISABLE_HTTP2=true.
// Proxies often mishandle HTTP/2 multiplexing; FORCE_HTTP2=true overrides that.
func configureHTTP2(tr *nethttp.Transport, proxyMode string) {
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	proxyActive := false
	switch strings.ToLower(proxyMode) {
	case "no-proxy", "":
	case "system":
		proxyActive = os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		proxyActive = true
	}

	disable := os.Getenv("DISABLE_HTTP2") == "true" ||
		(proxyActive && os.Getenv("FORCE_HTTP2") != "true")
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}
}

// lastResponseHandler hands the final response back once retries are
// exhausted so the API layer can map its status code. Without a response
// (connection refused, DNS failure) the last error is returned.
func lastResponseHandler(resp *nethttp.Response, err error, attempts int) (*nethttp.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("giving up after %d attempt(s): %w", attempts, err)
}
