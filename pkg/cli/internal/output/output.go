// Package output provides common output formatting utilities.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// JSON writes indented JSON to w. HTML escaping is off so XML payloads stay
// readable.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// XML writes doc to w, indented when pretty is set.
func XML(w io.Writer, doc *etree.Document, pretty bool) error {
	out := doc
	if pretty {
		out = doc.Copy()
		out.Indent(2)
	}
	s, err := out.WriteToString()
	if err != nil {
		return err
	}
	if pretty {
		_, err = io.WriteString(w, s)
	} else {
		_, err = fmt.Fprintln(w, s)
	}
	return err
}
