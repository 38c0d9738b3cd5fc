package soap

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Query is a compiled, namespace-resolved path expression.
//
// Supported syntax is a subset of XPath 1.0 location paths:
//   - relative and absolute paths, // descendants, ., .. and *
//   - prefix:Local names, resolved through a Namespaces map
//   - predicates: [n], [@a], [@a='v'], [name], [name='v'], [fn()] and
//     [fn()='v'] with fn one of local-name, namespace-uri, name or text
//   - a trailing /@attr (or /@prefix:attr) step selecting an attribute
//   - a trailing /text() step, equivalent to selecting the element
//
// Prefixed names match on the namespace URI and not on the prefix the
// document happens to use, in steps and predicates alike. Unprefixed element
// names match in any namespace; unprefixed attribute names match only
// attributes without a prefix. Anything else, such as unions or axes, fails
// to compile.
type Query struct {
	source   string
	absolute bool
	steps    []step
	attrNS   string
	attr     string
	hasAttr  bool
}

// step is one location step: a selector applied to each context element,
// then its predicates in order.
type step struct {
	descend bool
	path    etree.Path
	preds   []predicate
}

// predicate filters the candidates one context element produced for a step.
type predicate func(candidates []*etree.Element) []*etree.Element

var errUnsupportedSyntax = errors.New("unsupported query syntax")

// Node is a single query match: an element, or one of its attributes.
type Node struct {
	Element *etree.Element
	Attr    *etree.Attr
}

// Text returns the attribute value, or the element's leading character data.
func (n Node) Text() string {
	if n.Attr != nil {
		return n.Attr.Value
	}
	return n.Element.Text()
}

// CompileQuery resolves the prefixes in query against ns and compiles it.
func CompileQuery(query string, ns Namespaces) (Query, error) {
	q := Query{source: query}

	src := strings.TrimSpace(query)
	if src == "" {
		return q, &QueryError{Query: query, Err: errors.New("empty query")}
	}
	if err := checkSyntax(src); err != nil {
		return q, &QueryError{Query: query, Err: err}
	}

	steps := splitSteps(src)
	if strings.HasPrefix(src, "/") {
		// splitSteps yields a leading empty step for the root slash.
		q.absolute = true
		steps = steps[1:]
		if len(steps) == 1 && steps[0] == "" {
			steps = nil
		}
	}

	if n := len(steps); n > 0 {
		last := steps[n-1]
		switch {
		case last == "text()":
			steps = steps[:n-1]
		case strings.HasPrefix(last, "@"):
			space, local, err := resolveName(last[1:], ns)
			if err != nil {
				return q, &QueryError{Query: query, Err: err}
			}
			q.attrNS, q.attr, q.hasAttr = space, local, true
			steps = steps[:n-1]
		}
	}

	for i, raw := range steps {
		if raw == "" && i == len(steps)-1 {
			return q, &QueryError{Query: query, Err: errors.New("query ends with a descendant step")}
		}
		s, err := compileStep(raw, ns)
		if err != nil {
			return q, &QueryError{Query: query, Err: err}
		}
		q.steps = append(q.steps, s)
	}
	return q, nil
}

// MustCompileQuery is like CompileQuery but panics on error. Use it for
// queries known at compile time.
func MustCompileQuery(query string, ns Namespaces) Query {
	q, err := CompileQuery(query, ns)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the query as written.
func (q Query) String() string {
	return q.source
}

// Select evaluates q relative to e and returns the matches in document order.
func (q Query) Select(e *etree.Element) []Node {
	if e == nil {
		return nil
	}

	start := e
	if q.absolute {
		for start.Parent() != nil {
			start = start.Parent()
		}
	}
	elements := []*etree.Element{start}
	for _, s := range q.steps {
		elements = s.apply(elements)
		if len(elements) == 0 {
			return nil
		}
	}
	sortDocumentOrder(elements)

	nodes := make([]Node, 0, len(elements))
	for _, el := range elements {
		if !q.hasAttr {
			nodes = append(nodes, Node{Element: el})
			continue
		}
		if a := findAttr(el, q.attrNS, q.attr); a != nil {
			nodes = append(nodes, Node{Element: el, Attr: a})
		}
	}
	return nodes
}

// First returns the first match in document order.
func (q Query) First(e *etree.Element) (Node, bool) {
	nodes := q.Select(e)
	if len(nodes) == 0 {
		return Node{}, false
	}
	return nodes[0], true
}

// ExtractText returns the text of the first node matching query under e, or
// "" if nothing matches or the query is invalid.
func ExtractText(e *etree.Element, query string, ns Namespaces) string {
	q, err := CompileQuery(query, ns)
	if err != nil {
		return ""
	}
	n, ok := q.First(e)
	if !ok {
		return ""
	}
	return strings.TrimSpace(n.Text())
}

func (s step) apply(context []*etree.Element) []*etree.Element {
	var out []*etree.Element
	seen := make(map[*etree.Element]bool)
	for _, c := range context {
		var matched []*etree.Element
		if s.descend {
			matched = descendantsOrSelf(c, nil)
		} else {
			matched = c.FindElementsPath(s.path)
		}
		for _, p := range s.preds {
			matched = p(matched)
		}
		for _, m := range matched {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func descendantsOrSelf(e *etree.Element, out []*etree.Element) []*etree.Element {
	out = append(out, e)
	for _, c := range e.ChildElements() {
		out = descendantsOrSelf(c, out)
	}
	return out
}

// checkSyntax rejects constructs outside the supported subset that would
// otherwise compile into a query matching nothing.
func checkSyntax(src string) error {
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '|':
			return fmt.Errorf("%w: union", errUnsupportedSyntax)
		case c == ':' && i+1 < len(src) && src[i+1] == ':':
			return fmt.Errorf("%w: axis", errUnsupportedSyntax)
		}
	}
	if quote != 0 {
		return errors.New("unterminated string literal")
	}
	return nil
}

// compileStep turns one step into an etree selector with namespace filters
// and a list of predicates.
func compileStep(raw string, ns Namespaces) (step, error) {
	if raw == "" {
		return step{descend: true}, nil
	}

	sel, rest := raw, ""
	if i := strings.IndexByte(raw, '['); i >= 0 {
		sel, rest = raw[:i], raw[i:]
	}
	sel = strings.TrimSpace(sel)

	var path string
	switch {
	case sel == "." || sel == ".." || sel == "*":
		path = sel
	case strings.Contains(sel, ":"):
		uri, local, err := resolveName(sel, ns)
		if err != nil {
			return step{}, err
		}
		if !isName(local) {
			return step{}, fmt.Errorf("%w: step %q", errUnsupportedSyntax, sel)
		}
		path = fmt.Sprintf("*[local-name()='%s'][namespace-uri()='%s']", local, uri)
	case isName(sel):
		path = sel
	default:
		return step{}, fmt.Errorf("%w: step %q", errUnsupportedSyntax, sel)
	}

	compiled, err := etree.CompilePath(path)
	if err != nil {
		return step{}, err
	}
	preds, err := compilePredicates(rest, ns)
	if err != nil {
		return step{}, err
	}
	return step{path: compiled, preds: preds}, nil
}

func compilePredicates(src string, ns Namespaces) ([]predicate, error) {
	var preds []predicate
	for src = strings.TrimSpace(src); src != ""; src = strings.TrimSpace(src) {
		if src[0] != '[' {
			return nil, fmt.Errorf("%w: %q after predicate", errUnsupportedSyntax, src)
		}
		end := predicateEnd(src)
		if end < 0 {
			return nil, fmt.Errorf("unterminated predicate %q", src)
		}
		p, err := compilePredicate(src[1:end], ns)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
		src = src[end+1:]
	}
	return preds, nil
}

// predicateEnd returns the index of the ']' closing the predicate that opens
// src, or -1. Nested predicates are not supported.
func predicateEnd(src string) int {
	var quote byte
	for i := 1; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			return -1
		case c == ']':
			return i
		}
	}
	return -1
}

var predicateFuncs = map[string]func(e *etree.Element) string{
	"local-name":    func(e *etree.Element) string { return e.Tag },
	"namespace-uri": (*etree.Element).NamespaceURI,
	"name":          (*etree.Element).FullTag,
	"text":          (*etree.Element).Text,
}

func compilePredicate(body string, ns Namespaces) (predicate, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("empty predicate")
	}

	key, value, hasValue := splitComparison(body)
	if !hasValue {
		if n, err := strconv.Atoi(key); err == nil {
			return positionPredicate(n)
		}
	}

	var test func(e *etree.Element) bool
	switch {
	case strings.HasPrefix(key, "@"):
		uri, local, err := resolveName(key[1:], ns)
		if err != nil {
			return nil, err
		}
		if !isName(local) {
			return nil, fmt.Errorf("%w: predicate %q", errUnsupportedSyntax, body)
		}
		test = func(e *etree.Element) bool {
			a := findAttr(e, uri, local)
			return a != nil && (!hasValue || a.Value == value)
		}
	case strings.HasSuffix(key, "()"):
		fn, ok := predicateFuncs[strings.TrimSuffix(key, "()")]
		if !ok {
			return nil, fmt.Errorf("%w: function %q", errUnsupportedSyntax, key)
		}
		test = func(e *etree.Element) bool {
			if hasValue {
				return fn(e) == value
			}
			return fn(e) != ""
		}
	default:
		match, err := elementMatcher(key, ns)
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", body, err)
		}
		test = func(e *etree.Element) bool {
			for _, c := range e.ChildElements() {
				if match(c) && (!hasValue || c.Text() == value) {
					return true
				}
			}
			return false
		}
	}

	return func(candidates []*etree.Element) []*etree.Element {
		var out []*etree.Element
		for _, c := range candidates {
			if test(c) {
				out = append(out, c)
			}
		}
		return out
	}, nil
}

// splitComparison splits key='value' or key="value". A body without a
// trailing quoted literal is returned whole as the key.
func splitComparison(body string) (key, value string, ok bool) {
	i := strings.IndexByte(body, '=')
	if i <= 0 {
		return body, "", false
	}
	lit := strings.TrimSpace(body[i+1:])
	if len(lit) < 2 {
		return body, "", false
	}
	q := lit[0]
	if (q != '\'' && q != '"') || lit[len(lit)-1] != q || strings.IndexByte(lit[1:len(lit)-1], q) >= 0 {
		return body, "", false
	}
	return strings.TrimSpace(body[:i]), lit[1 : len(lit)-1], true
}

// positionPredicate keeps the n-th candidate, counting from 1, or from the
// end when n is negative.
func positionPredicate(n int) (predicate, error) {
	if n == 0 {
		return nil, errors.New("position predicate must not be 0")
	}
	return func(candidates []*etree.Element) []*etree.Element {
		i := n - 1
		if n < 0 {
			i = len(candidates) + n
		}
		if i < 0 || i >= len(candidates) {
			return nil
		}
		return candidates[i : i+1]
	}, nil
}

func elementMatcher(name string, ns Namespaces) (func(e *etree.Element) bool, error) {
	if name == "*" {
		return func(*etree.Element) bool { return true }, nil
	}
	uri, local, err := resolveName(name, ns)
	if err != nil {
		return nil, err
	}
	if !isName(local) {
		return nil, fmt.Errorf("%w: name %q", errUnsupportedSyntax, name)
	}
	if !strings.Contains(name, ":") {
		return func(e *etree.Element) bool { return e.Tag == local }, nil
	}
	return func(e *etree.Element) bool {
		return e.Tag == local && e.NamespaceURI() == uri
	}, nil
}

// findAttr returns e's attribute local in namespace uri. An empty uri
// selects an attribute without a prefix.
func findAttr(e *etree.Element, uri, local string) *etree.Attr {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key != local {
			continue
		}
		if uri == "" && a.Space == "" {
			return a
		}
		if uri != "" && a.NamespaceURI() == uri {
			return a
		}
	}
	return nil
}

// isName reports whether s can be an unprefixed XML name in a query.
func isName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n:/@[]()='\"*|,<>!$+")
}

// resolveName splits prefix:local and looks the prefix up in ns. Unprefixed
// names resolve to the empty namespace.
func resolveName(name string, ns Namespaces) (uri, local string, err error) {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", name, nil
	}
	if prefix == "" || local == "" {
		return "", "", fmt.Errorf("malformed name %q", name)
	}
	uri, found := ns[prefix]
	if !found {
		return "", "", fmt.Errorf("unbound namespace prefix %q", prefix)
	}
	return uri, local, nil
}

// splitSteps splits a path on '/' outside of quotes and brackets.
func splitSteps(path string) []string {
	var steps []string
	start, depth := 0, 0
	var quote byte
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '/' && depth == 0:
			steps = append(steps, path[start:i])
			start = i + 1
		}
	}
	return append(steps, path[start:])
}

// sortDocumentOrder sorts elements by their position in the tree.
func sortDocumentOrder(elements []*etree.Element) {
	if len(elements) < 2 {
		return
	}
	positions := make(map[*etree.Element][]int, len(elements))
	for _, e := range elements {
		positions[e] = treePosition(e)
	}
	slices.SortStableFunc(elements, func(a, b *etree.Element) int {
		return slices.Compare(positions[a], positions[b])
	})
}

// treePosition returns the child indexes leading from the root to e.
func treePosition(e *etree.Element) []int {
	var pos []int
	for p := e; p.Parent() != nil; p = p.Parent() {
		pos = append(pos, p.Index())
	}
	slices.Reverse(pos)
	return pos
}
