package soap

import (
	"strings"

	"github.com/beevik/etree"
)

// CheckForFault searches the whole document for a Fault element in the
// envelope namespace. A Fault may appear at any depth, not only under Body.
// The first Fault in document order is reported as a *ProtocolFaultError.
func CheckForFault(doc *etree.Document, envelopeNS string) error {
	if doc == nil {
		return nil
	}
	if envelopeNS == "" {
		envelopeNS = SOAP11Namespace
	}

	q, err := CompileQuery("//"+EnvelopePrefix+":Fault", Namespaces{EnvelopePrefix: envelopeNS})
	if err != nil {
		return err
	}
	n, ok := q.First(&doc.Element)
	if !ok {
		return nil
	}
	return newFaultError(n.Element)
}

func newFaultError(fault *etree.Element) *ProtocolFaultError {
	fe := &ProtocolFaultError{Text: fault.Text()}
	for _, c := range fault.ChildElements() {
		switch c.Tag {
		case "faultcode":
			fe.Code = strings.TrimSpace(c.Text())
		case "faultstring":
			fe.String = strings.TrimSpace(c.Text())
		}
	}
	return fe
}
