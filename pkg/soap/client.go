package soap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/beevik/etree"
	"github.com/getmockd/ewsoap/pkg/logging"
	"github.com/google/uuid"
)

// Client sends request bodies to an Exchange server.
//
// Each Send wraps the body, hands the serialized envelope to the Transport
// and parses the reply. Client keeps no per-call state and is safe for
// concurrent use when its Transport is.
type Client struct {
	transport Transport
	builder   *EnvelopeBuilder
	parser    *Parser
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request and response dumps.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEnvelopeBuilder replaces the default envelope builder.
func WithEnvelopeBuilder(b *EnvelopeBuilder) Option {
	return func(c *Client) {
		if b != nil {
			c.builder = b
		}
	}
}

// WithMetrics records send outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client that delivers envelopes through t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		builder:   NewEnvelopeBuilder(),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = NewParser(c.logger)
	c.parser.EnvelopeNamespace = c.builder.envelopeNS()
	return c
}

// Namespaces returns the prefix map for queries against responses.
func (c *Client) Namespaces() Namespaces {
	return c.builder.Namespaces()
}

// EnvelopeBuilder returns the builder used by Send.
func (c *Client) EnvelopeBuilder() *EnvelopeBuilder {
	return c.builder
}

// SendOption configures a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	headers        map[string]string
	retries        int
	timeoutSeconds int
	encoding       string
	availability   bool
}

func defaultSendOptions() sendOptions {
	return sendOptions{
		retries:        DefaultRetries,
		timeoutSeconds: DefaultTimeoutSeconds,
		encoding:       DefaultEncoding,
	}
}

// WithHeaders sets extra transport headers for the call.
func WithHeaders(headers map[string]string) SendOption {
	return func(o *sendOptions) {
		o.headers = maps.Clone(headers)
	}
}

// WithRetries sets the retry count passed to the transport.
func WithRetries(n int) SendOption {
	return func(o *sendOptions) {
		o.retries = n
	}
}

// WithTimeout sets the timeout, in whole seconds, passed to the transport.
func WithTimeout(seconds int) SendOption {
	return func(o *sendOptions) {
		o.timeoutSeconds = seconds
	}
}

// WithEncoding sets the text encoding of the request and response.
func WithEncoding(name string) SendOption {
	return func(o *sendOptions) {
		o.encoding = name
	}
}

// WithAvailabilityHeader sends the TimeZoneContext header required by
// availability requests.
func WithAvailabilityHeader() SendOption {
	return func(o *sendOptions) {
		o.availability = true
	}
}

// Send wraps body in an envelope, delivers it and returns the parsed reply.
//
// Retries and timeout are handed to the transport as-is; Send itself makes
// exactly one transport call. Errors are *MalformedResponseError,
// *ProtocolFaultError or the transport's error wrapped with context.
func (c *Client) Send(ctx context.Context, body *etree.Element, opts ...SendOption) (*etree.Document, error) {
	o := defaultSendOptions()
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	logger := c.logger.With("requestId", uuid.New().String())

	envelope := c.builder.Wrap(body, o.availability)
	logger.Debug("SOAP request", "availability", o.availability, "xml", logging.XML(envelope))

	payload, err := EncodeDocument(envelope, o.encoding)
	if err != nil {
		c.metrics.observe(OutcomeEncodeError, time.Since(start))
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	raw, err := c.transport.Send(ctx, payload, o.headers, o.retries, o.timeoutSeconds)
	if err != nil {
		c.metrics.observe(OutcomeTransportError, time.Since(start))
		logger.Warn("SOAP transport failed", "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	doc, err := c.parser.Parse([]byte(raw), o.encoding)
	if err != nil {
		outcome := OutcomeMalformed
		if errors.Is(err, ErrProtocolFault) {
			outcome = OutcomeFault
		}
		c.metrics.observe(outcome, time.Since(start))
		logger.Warn("SOAP response rejected", "outcome", outcome, "error", err)
		return nil, err
	}

	c.metrics.observe(OutcomeOK, time.Since(start))
	logger.Debug("SOAP request complete", "duration", time.Since(start))
	return doc, nil
}
