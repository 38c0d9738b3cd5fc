package logging

import (
	"log/slog"

	"github.com/beevik/etree"
)

// XML returns a log value that renders an etree document or element as
// indented XML. Rendering happens only when a handler emits the record.
//
// Accepted values are *etree.Document and *etree.Element; anything else,
// including nil, renders as an empty string.
func XML(v any) slog.LogValuer {
	return xmlValue{v: v}
}

type xmlValue struct {
	v any
}

func (x xmlValue) LogValue() slog.Value {
	var doc *etree.Document
	switch t := x.v.(type) {
	case *etree.Document:
		if t == nil {
			return slog.StringValue("")
		}
		doc = t.Copy()
	case *etree.Element:
		if t == nil {
			return slog.StringValue("")
		}
		doc = etree.NewDocumentWithRoot(t.Copy())
	default:
		return slog.StringValue("")
	}

	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return slog.StringValue("<unprintable XML: " + err.Error() + ">")
	}
	return slog.StringValue(s)
}
