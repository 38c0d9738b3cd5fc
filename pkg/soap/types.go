package soap

import (
	"context"
	"maps"
)

// SOAP and Exchange namespace URIs
const (
	SOAP11Namespace   = "http://schemas.xmlsoap.org/soap/envelope/"
	TypesNamespace    = "http://schemas.microsoft.com/exchange/services/2006/types"
	MessagesNamespace = "http://schemas.microsoft.com/exchange/services/2006/messages"
)

// Namespace prefixes used when building envelopes.
const (
	EnvelopePrefix = "s"
	TypesPrefix    = "t"
	MessagesPrefix = "m"
)

// DefaultServerVersion is the RequestServerVersion sent in every header.
const DefaultServerVersion = "Exchange2010"

// Send defaults. The core passes these through to the transport and never
// interprets them.
const (
	DefaultRetries        = 4
	DefaultTimeoutSeconds = 30
	DefaultEncoding       = "utf-8"
)

// ContentType is the HTTP content type for SOAP 1.1 requests.
const ContentType = "text/xml; charset=utf-8"

// Namespaces maps query prefixes to namespace URIs.
type Namespaces map[string]string

// DefaultNamespaces returns the prefix map used by Exchange responses.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		EnvelopePrefix: SOAP11Namespace,
		TypesPrefix:    TypesNamespace,
		MessagesPrefix: MessagesNamespace,
	}
}

// With returns a copy of n with prefix bound to uri.
func (n Namespaces) With(prefix, uri string) Namespaces {
	out := make(Namespaces, len(n)+1)
	maps.Copy(out, n)
	out[prefix] = uri
	return out
}

// Transport delivers a serialized envelope and returns the raw response text.
//
// Implementations own retry counting, timeouts and HTTP headers; the core only
// forwards the values it was given. Transports must be safe for concurrent use
// if the Client using them is shared.
type Transport interface {
	Send(ctx context.Context, body []byte, headers map[string]string, retries, timeoutSeconds int) (string, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, body []byte, headers map[string]string, retries, timeoutSeconds int) (string, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, body []byte, headers map[string]string, retries, timeoutSeconds int) (string, error) {
	return f(ctx, body, headers, retries, timeoutSeconds)
}
