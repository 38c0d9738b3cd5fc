package soap

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrUnknownEncoding is returned for text encodings that cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown text encoding")

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// lookupEncoding resolves a charset label. WHATWG labels are tried first,
// then IANA names.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// DecodeText converts raw text in the named encoding to UTF-8.
func DecodeText(raw []byte, name string) ([]byte, error) {
	if isUTF8(name) {
		if !utf8.Valid(raw) {
			return nil, errors.New("invalid UTF-8 in response")
		}
		return raw, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}

// EncodeDocument serializes doc in the named encoding. Non-UTF-8 output is
// prefixed with an XML declaration naming the encoding.
func EncodeDocument(doc *etree.Document, name string) ([]byte, error) {
	if isUTF8(name) {
		return doc.WriteToBytes()
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", fmt.Sprintf(`version="1.0" encoding="%s"`, name))
	if root := doc.Root(); root != nil {
		out.AddChild(root.Copy())
	}
	text, err := out.WriteToBytes()
	if err != nil {
		return nil, err
	}

	encoded, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return encoded, nil
}
