package soap

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// EnvelopeBuilder wraps request bodies in a SOAP envelope carrying the
// Exchange request header.
//
// The zero value is usable and builds Exchange2010 envelopes with the
// Pacific timezone for availability requests. An EnvelopeBuilder is safe for
// concurrent use as long as its fields are not modified.
type EnvelopeBuilder struct {
	// Version is the RequestServerVersion marker. Defaults to DefaultServerVersion.
	Version string

	// EnvelopeNamespace defaults to SOAP11Namespace.
	EnvelopeNamespace string

	// TypesNamespace defaults to TypesNamespace.
	TypesNamespace string

	// MessagesNamespace is declared on the envelope for request bodies that
	// use the m prefix. Defaults to MessagesNamespace.
	MessagesNamespace string

	// Timezone is sent in the TimeZoneContext of availability headers.
	// Defaults to PacificTimezone().
	Timezone *TimezoneDefinition
}

// NewEnvelopeBuilder returns a builder with every field set to its default.
func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{
		Version:           DefaultServerVersion,
		EnvelopeNamespace: SOAP11Namespace,
		TypesNamespace:    TypesNamespace,
		MessagesNamespace: MessagesNamespace,
		Timezone:          PacificTimezone(),
	}
}

// Namespaces returns the prefix map matching the envelopes b produces.
func (b *EnvelopeBuilder) Namespaces() Namespaces {
	return Namespaces{
		EnvelopePrefix: b.envelopeNS(),
		TypesPrefix:    b.typesNS(),
		MessagesPrefix: b.messagesNS(),
	}
}

// Wrap builds an envelope around a copy of body. The header always carries
// the server version; with availability set it also carries a
// TimeZoneContext built from b.Timezone. A nil body produces an empty Body.
func (b *EnvelopeBuilder) Wrap(body *etree.Element, availability bool) *etree.Document {
	doc := etree.NewDocument()

	env := doc.CreateElement(prefixed(EnvelopePrefix, "Envelope"))
	env.CreateAttr("xmlns:"+EnvelopePrefix, b.envelopeNS())
	env.CreateAttr("xmlns:"+TypesPrefix, b.typesNS())
	env.CreateAttr("xmlns:"+MessagesPrefix, b.messagesNS())

	env.AddChild(b.header(availability))

	bodyEl := env.CreateElement(prefixed(EnvelopePrefix, "Body"))
	if body != nil {
		bodyEl.AddChild(body.Copy())
	}

	return doc
}

func (b *EnvelopeBuilder) header(availability bool) *etree.Element {
	header := newPrefixed(EnvelopePrefix, "Header")

	version := header.CreateElement(prefixed(TypesPrefix, "RequestServerVersion"))
	version.CreateAttr("Version", b.version())

	if availability {
		ctx := header.CreateElement(prefixed(TypesPrefix, "TimeZoneContext"))
		ctx.AddChild(b.timezone().Element(TypesPrefix))
	}

	return header
}

func (b *EnvelopeBuilder) version() string {
	if b.Version == "" {
		return DefaultServerVersion
	}
	return b.Version
}

func (b *EnvelopeBuilder) envelopeNS() string {
	if b.EnvelopeNamespace == "" {
		return SOAP11Namespace
	}
	return b.EnvelopeNamespace
}

func (b *EnvelopeBuilder) typesNS() string {
	if b.TypesNamespace == "" {
		return TypesNamespace
	}
	return b.TypesNamespace
}

func (b *EnvelopeBuilder) messagesNS() string {
	if b.MessagesNamespace == "" {
		return MessagesNamespace
	}
	return b.MessagesNamespace
}

func (b *EnvelopeBuilder) timezone() *TimezoneDefinition {
	if b.Timezone == nil {
		return PacificTimezone()
	}
	return b.Timezone
}

// ParseFragment parses an XML fragment with a single root element, such as a
// request body, and returns that element.
func ParseFragment(fragment string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(fragment); err != nil {
		return nil, fmt.Errorf("invalid XML fragment: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("invalid XML fragment: no root element")
	}
	if len(doc.ChildElements()) > 1 {
		return nil, errors.New("invalid XML fragment: more than one root element")
	}
	return root, nil
}
