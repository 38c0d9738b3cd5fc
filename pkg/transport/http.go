package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/getmockd/ewsoap/pkg/logging"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/publicsuffix"
)

// Interface compliance check.
var _ soap.Transport = (*HTTP)(nil)

// ErrStatus is returned for HTTP responses the transport will not hand to
// the SOAP parser.
var ErrStatus = errors.New("unexpected HTTP status")

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 << 20 // 32MB

// Config configures an HTTP transport.
type Config struct {
	// Endpoint is the EWS URL, e.g. https://mail.example.com/EWS/Exchange.asmx.
	Endpoint string

	// Username and Password enable HTTP basic authentication when set.
	Username string
	Password string

	// Headers are sent with every request. Per-call headers override them.
	Headers map[string]string

	// RetryWait is the pause before the second attempt; later attempts wait
	// proportionally longer. Defaults to 500ms.
	RetryWait time.Duration

	// Compression requests gzip encoded responses.
	Compression bool

	// Cookies keeps server cookies between requests. Exchange uses them for
	// mailbox server affinity.
	Cookies bool

	// Client is the underlying HTTP client. Defaults to a new http.Client
	// without a client-wide timeout; timeouts are applied per attempt.
	Client *http.Client

	Logger *slog.Logger
}

// HTTP posts SOAP envelopes to an Exchange endpoint.
type HTTP struct {
	endpoint    string
	username    string
	password    string
	headers     map[string]string
	retryWait   time.Duration
	compression bool
	client      *http.Client
	logger      *slog.Logger
}

// NewHTTP creates an HTTP transport.
func NewHTTP(cfg Config) *HTTP {
	t := &HTTP{
		endpoint:    cfg.Endpoint,
		username:    cfg.Username,
		password:    cfg.Password,
		headers:     cfg.Headers,
		retryWait:   cfg.RetryWait,
		compression: cfg.Compression,
		client:      cfg.Client,
		logger:      cfg.Logger,
	}
	if t.retryWait <= 0 {
		t.retryWait = 500 * time.Millisecond
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	if cfg.Cookies && t.client.Jar == nil {
		// cookiejar.New only fails on invalid options.
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		// The caller's client may be shared; the jar goes on a copy.
		c := *t.client
		c.Jar = jar
		t.client = &c
	}
	if t.logger == nil {
		t.logger = logging.Nop()
	}
	return t
}

// Send posts body and returns the response text.
//
// Up to retries attempts are made (at least one). Network errors and
// 502/503/504 responses are retried. 2xx responses and 500 responses, which
// Exchange uses to carry SOAP faults, are returned for parsing. Every other
// status fails with ErrStatus. timeoutSeconds bounds each attempt.
func (t *HTTP) Send(ctx context.Context, body []byte, headers map[string]string, retries, timeoutSeconds int) (string, error) {
	attempts := max(retries, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * t.retryWait
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, retry, err := t.do(ctx, body, headers, timeoutSeconds)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry {
			return "", err
		}
		t.logger.Warn("SOAP request attempt failed", "attempt", attempt, "of", attempts, "error", err)
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (t *HTTP) do(ctx context.Context, body []byte, headers map[string]string, timeoutSeconds int) (text string, retry bool, err error) {
	if timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", soap.ContentType)
	req.Header.Set("Accept", "text/xml")
	if t.compression {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// The caller's context ending is final; anything else is worth a retry.
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", false, fmt.Errorf("request failed: %w", err)
		}
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readBody(resp)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300,
		resp.StatusCode == http.StatusInternalServerError:
		return string(data), false, nil
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return "", true, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	default:
		return "", false, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
}

// readBody reads at most maxResponseSize bytes of decoded body. Go only
// decompresses transparently when it set Accept-Encoding itself, so gzip
// bodies are decoded here.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return io.ReadAll(io.LimitReader(r, maxResponseSize))
}
