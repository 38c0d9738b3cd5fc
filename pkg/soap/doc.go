// Package soap is the protocol core of the ewsoap Exchange Web Services client.
//
// It wraps request bodies in a SOAP 1.1 envelope, hands them to a Transport,
// parses and fault-checks the reply, and pulls typed values out of response
// documents with declarative property maps.
//
// # Features
//
//   - Envelope construction with an Exchange RequestServerVersion header
//   - Optional TimeZoneContext header for availability requests
//   - Charset-aware response decoding and well-formedness checks
//   - SOAP Fault detection anywhere in the response document
//   - Namespace-aware path queries on top of etree
//   - Property map extraction with datetime, date, int and bool casts
//
// # Basic Usage
//
// Create a client around a transport and send a request body:
//
//	client := soap.NewClient(transport.NewHTTP(cfg), soap.WithLogger(logger))
//
//	body, _ := soap.ParseFragment(`<m:GetItem xmlns:m="...">...</m:GetItem>`)
//	doc, err := client.Send(ctx, body)
//	if err != nil {
//	    var fault *soap.ProtocolFaultError
//	    if errors.As(err, &fault) {
//	        // server rejected the request
//	    }
//	    return err
//	}
//
// # Property Maps
//
// Extract typed fields relative to any element of the response:
//
//	props := soap.PropertyMap{
//	    "name":  {Query: "t:Mailbox/t:Name"},
//	    "since": {Query: "t:Created", Cast: soap.CastDateTime},
//	}
//	fields, err := soap.Extract(attendee, props, client.Namespaces())
//
// A field whose query matches nothing is left out of the result. One match
// is stored as a scalar and several as a []any in document order. Any
// coercion failure aborts the whole extraction with a *CoercionError.
//
// # Availability Requests
//
// WithAvailabilityHeader adds a TimeZoneContext built from the envelope
// builder's TimezoneDefinition:
//
//	builder := soap.NewEnvelopeBuilder()
//	builder.Timezone = myZone
//	client := soap.NewClient(t, soap.WithEnvelopeBuilder(builder))
//	doc, err := client.Send(ctx, body, soap.WithAvailabilityHeader())
//
// # Error Handling
//
// Send and Extract fail with one of:
//   - *MalformedResponseError: the reply could not be decoded or parsed
//   - *ProtocolFaultError: the reply contains a soap:Fault
//   - *CoercionError: a field's text does not fit its cast
//   - *QueryError: a field query is invalid or uses an unbound prefix
//
// Each matches its sentinel (ErrMalformedResponse, ErrProtocolFault,
// ErrCoercion, ErrInvalidQuery) with errors.Is.
package soap
