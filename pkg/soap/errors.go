package soap

import (
	"errors"
	"fmt"
)

// Sentinel errors for branching with errors.Is.
var (
	ErrMalformedResponse = errors.New("malformed SOAP response")
	ErrProtocolFault     = errors.New("SOAP fault")
	ErrCoercion          = errors.New("field coercion failed")
	ErrInvalidQuery      = errors.New("invalid field query")
)

// MalformedResponseError is returned when a response cannot be decoded or is
// not well-formed XML.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unable to parse response from Exchange - check your login information: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// ProtocolFaultError is returned when a response contains a SOAP Fault element.
// Text holds the raw character data of the first Fault element.
type ProtocolFaultError struct {
	Text string

	// Code and String are the SOAP 1.1 faultcode and faultstring children,
	// when present.
	Code   string
	String string
}

func (e *ProtocolFaultError) Error() string {
	switch {
	case e.String != "" && e.Code != "":
		return fmt.Sprintf("SOAP fault from Exchange server: %s: %s", e.Code, e.String)
	case e.String != "":
		return "SOAP fault from Exchange server: " + e.String
	case e.Text != "":
		return "SOAP fault from Exchange server: " + e.Text
	default:
		return "SOAP fault from Exchange server"
	}
}

// Is reports whether target is ErrProtocolFault.
func (e *ProtocolFaultError) Is(target error) bool { return target == ErrProtocolFault }

// CoercionError is returned when a matched field's text cannot be converted
// under its declared cast.
type CoercionError struct {
	Field string
	Text  string
	Cast  Cast
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot cast %q as %s: %v", e.Field, e.Text, e.Cast, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCoercion.
func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }

// QueryError is returned when a field query cannot be compiled.
type QueryError struct {
	Field string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("query %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("field %q: query %q: %v", e.Field, e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidQuery.
func (e *QueryError) Is(target error) bool { return target == ErrInvalidQuery }
