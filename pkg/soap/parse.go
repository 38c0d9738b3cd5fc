package soap

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"
	"github.com/getmockd/ewsoap/pkg/logging"
)

// Parser turns raw response text into an etree document and rejects
// responses that carry a SOAP fault.
type Parser struct {
	// EnvelopeNamespace is the namespace Fault elements are matched in.
	// Defaults to SOAP11Namespace.
	EnvelopeNamespace string

	logger *slog.Logger
}

// NewParser creates a parser. A nil logger disables logging.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Parser{EnvelopeNamespace: SOAP11Namespace, logger: logger}
}

// Parse decodes raw using textEncoding, parses it as XML and checks it for a
// SOAP fault.
//
// Decoding and parse failures are reported as *MalformedResponseError; a
// fault anywhere in the document is reported as *ProtocolFaultError.
func (p *Parser) Parse(raw []byte, textEncoding string) (*etree.Document, error) {
	text, err := DecodeText(raw, textEncoding)
	if err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	doc := etree.NewDocument()
	doc.ReadSettings.ValidateInput = true
	doc.ReadSettings.PreserveDuplicateAttrs = true
	// Validation treats trailing whitespace as content after the root.
	if err := doc.ReadFromBytes(bytes.TrimRight(text, " \t\r\n")); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if err := checkWellFormed(doc); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	if err := CheckForFault(doc, p.EnvelopeNamespace); err != nil {
		var fault *ProtocolFaultError
		if errors.As(err, &fault) {
			p.log().Debug("SOAP fault in response", "fault", fault.Text, "faultcode", fault.Code)
		}
		return nil, err
	}

	p.log().Debug("parsed response", "xml", logging.XML(doc))
	return doc, nil
}

func (p *Parser) log() *slog.Logger {
	if p.logger == nil {
		return logging.Nop()
	}
	return p.logger
}

// checkWellFormed covers what the encoding/xml decoder accepts but XML
// forbids: text outside the root, repeated attributes and unbound prefixes.
func checkWellFormed(doc *etree.Document) error {
	roots := 0
	for _, t := range doc.Child {
		switch t := t.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return errors.New("text outside the root element")
			}
		}
	}
	switch {
	case roots == 0:
		return errors.New("document has no root element")
	case roots > 1:
		return errors.New("document has more than one root element")
	}
	return checkElement(doc.Root())
}

func checkElement(e *etree.Element) error {
	if !prefixBound(e.Space, e.NamespaceURI()) {
		return fmt.Errorf("element <%s>: unbound namespace prefix %q", e.FullTag(), e.Space)
	}
	seen := make(map[string]bool, len(e.Attr))
	for i := range e.Attr {
		a := &e.Attr[i]
		name := a.FullKey()
		if seen[name] {
			return fmt.Errorf("element <%s>: duplicate attribute %q", e.FullTag(), name)
		}
		seen[name] = true
		if a.Space != "xmlns" && !prefixBound(a.Space, a.NamespaceURI()) {
			return fmt.Errorf("element <%s>: unbound namespace prefix %q", e.FullTag(), a.Space)
		}
	}
	for _, c := range e.ChildElements() {
		if err := checkElement(c); err != nil {
			return err
		}
	}
	return nil
}

func prefixBound(prefix, uri string) bool {
	return prefix == "" || prefix == "xml" || uri != ""
}
