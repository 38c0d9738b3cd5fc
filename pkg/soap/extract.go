package soap

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/getmockd/ewsoap/pkg/logging"
	"gopkg.in/yaml.v3"
)

// FieldSpec describes how one result field is pulled out of a response.
type FieldSpec struct {
	Query string `json:"query" yaml:"query"`
	Cast  Cast   `json:"cast,omitempty" yaml:"cast,omitempty"`
}

type fieldSpecFields struct {
	Query string `json:"query" yaml:"query"`
	XPath string `json:"xpath" yaml:"xpath"`
	Cast  Cast   `json:"cast" yaml:"cast"`
}

func (f *FieldSpec) set(raw fieldSpecFields) error {
	f.Query, f.Cast = raw.Query, raw.Cast
	if f.Query == "" {
		f.Query = raw.XPath
	}
	if f.Query == "" {
		return errors.New("field spec requires a query")
	}
	return nil
}

// UnmarshalYAML accepts either a bare query string or a mapping with query
// (or xpath) and cast keys.
func (f *FieldSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return f.set(fieldSpecFields{Query: value.Value})
	}
	var raw fieldSpecFields
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return f.set(raw)
}

// UnmarshalJSON accepts the same shapes as UnmarshalYAML.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var query string
	if err := json.Unmarshal(data, &query); err == nil {
		return f.set(fieldSpecFields{Query: query})
	}
	var raw fieldSpecFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return f.set(raw)
}

// PropertyMap maps result field names to their specs.
//
//	soap.PropertyMap{
//	    "name":          {Query: "t:Mailbox/t:Name"},
//	    "email":         {Query: "t:Mailbox/t:EmailAddress"},
//	    "last_response": {Query: "t:LastResponseTime", Cast: soap.CastDateTime},
//	}
type PropertyMap map[string]FieldSpec

// Result holds extracted fields. A field whose query matched one node holds a
// scalar; one that matched several holds a []any in document order. A field
// whose query matched nothing is absent.
type Result map[string]any

// Extractor runs property maps against response elements.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger disables logging.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{logger: logger}
}

// Extract evaluates every field of pm relative to e, resolving query
// prefixes through ns. The first query or coercion error aborts the call and
// no partial result is returned.
func (x *Extractor) Extract(e *etree.Element, pm PropertyMap, ns Namespaces) (Result, error) {
	logger := x.logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Debug("extracting fields", "fields", len(pm), "xml", logging.XML(e))

	result := make(Result, len(pm))
	for field, spec := range pm {
		q, err := CompileQuery(spec.Query, ns)
		if err != nil {
			var qe *QueryError
			if errors.As(err, &qe) {
				qe.Field = field
			}
			return nil, err
		}

		nodes := q.Select(e)
		logger.Debug("pulled query into field", "field", field, "query", spec.Query, "matches", len(nodes))
		if len(nodes) == 0 {
			continue
		}

		values := make([]any, 0, len(nodes))
		for _, n := range nodes {
			text := n.Text()
			v, err := spec.Cast.Apply(text)
			if err != nil {
				return nil, &CoercionError{Field: field, Text: text, Cast: spec.Cast, Err: err}
			}
			values = append(values, v)
		}

		if len(values) == 1 {
			result[field] = values[0]
		} else {
			result[field] = values
		}
	}
	return result, nil
}

// Extract runs pm against e with a non-logging extractor.
func Extract(e *etree.Element, pm PropertyMap, ns Namespaces) (Result, error) {
	return (&Extractor{}).Extract(e, pm, ns)
}
