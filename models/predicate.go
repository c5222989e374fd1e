package models

import (
	"encoding/json"
	"fmt"

	"github.com/antchfx/xpath"
)

// Operator is the discriminator of a predicate node.
type Operator string

const (
	OperatorEquals     Operator = "equals"
	OperatorDeepEquals Operator = "deepEquals"
	OperatorContains   Operator = "contains"
	OperatorStartsWith Operator = "startsWith"
	OperatorEndsWith   Operator = "endsWith"
	OperatorMatches    Operator = "matches"
	OperatorExists     Operator = "exists"
	OperatorAnd        Operator = "and"
	OperatorOr         Operator = "or"
	OperatorNot        Operator = "not"
	OperatorInject     Operator = "inject"
)

var operators = []Operator{
	OperatorEquals, OperatorDeepEquals, OperatorContains, OperatorStartsWith,
	OperatorEndsWith, OperatorMatches, OperatorExists,
	OperatorAnd, OperatorOr, OperatorNot, OperatorInject,
}

// IsLeaf reports whether the operator compares request fields directly.
func (o Operator) IsLeaf() bool {
	switch o {
	case OperatorEquals, OperatorDeepEquals, OperatorContains, OperatorStartsWith,
		OperatorEndsWith, OperatorMatches, OperatorExists:
		return true
	}
	return false
}

// XPathSelector narrows a predicate to the result of an XPath expression
// evaluated against the selected field.
type XPathSelector struct {
	Selector   string            `json:"selector"`
	Namespaces map[string]string `json:"ns,omitempty"`
}

// JSONPathSelector narrows a predicate to the result of a JSONPath expression.
type JSONPathSelector struct {
	Selector string `json:"selector"`
}

// Predicate is a condition the remote service evaluates against incoming
// requests. The zero value is not a valid predicate; use the constructors.
type Predicate struct {
	op       Operator
	fields   map[string]any
	children []Predicate
	script   string

	caseSensitive *bool
	except        string
	xpath         *XPathSelector
	jsonPath      *JSONPathSelector
}

func leaf(op Operator, fields []Field) Predicate {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		f.apply(m)
	}
	return Predicate{op: op, fields: m}
}

// Equals matches when every selected field equals its value.
func Equals(fields ...Field) Predicate { return leaf(OperatorEquals, fields) }

// DeepEquals matches when the selected objects are structurally equal, with no extra keys.
func DeepEquals(fields ...Field) Predicate { return leaf(OperatorDeepEquals, fields) }

// Contains matches when every selected field contains its value.
func Contains(fields ...Field) Predicate { return leaf(OperatorContains, fields) }

// StartsWith matches when every selected field starts with its value.
func StartsWith(fields ...Field) Predicate { return leaf(OperatorStartsWith, fields) }

// EndsWith matches when every selected field ends with its value.
func EndsWith(fields ...Field) Predicate { return leaf(OperatorEndsWith, fields) }

// Matches matches when every selected field matches its regular expression.
func Matches(fields ...Field) Predicate { return leaf(OperatorMatches, fields) }

// Exists matches on the presence (true) or absence (false) of the selected fields.
func Exists(fields ...Field) Predicate { return leaf(OperatorExists, fields) }

// And matches when every child matches.
func And(children ...Predicate) Predicate {
	return Predicate{op: OperatorAnd, children: append([]Predicate(nil), children...)}
}

// Or matches when at least one child matches.
func Or(children ...Predicate) Predicate {
	return Predicate{op: OperatorOr, children: append([]Predicate(nil), children...)}
}

// Not inverts child.
func Not(child Predicate) Predicate {
	return Predicate{op: OperatorNot, children: []Predicate{child}}
}

// InjectPredicate delegates matching to a JavaScript function run by the
// remote service. The script is passed through verbatim.
func InjectPredicate(script string) Predicate {
	return Predicate{op: OperatorInject, script: script}
}

// WithCaseSensitive returns a copy of p with case sensitivity set.
func (p Predicate) WithCaseSensitive(caseSensitive bool) Predicate {
	p.caseSensitive = &caseSensitive
	return p
}

// WithExcept returns a copy of p that strips matches of the regular
// expression from the field before comparing.
func (p Predicate) WithExcept(pattern string) Predicate {
	p.except = pattern
	return p
}

// WithXPath returns a copy of p evaluated against an XPath selection.
func (p Predicate) WithXPath(selector string, namespaces map[string]string) Predicate {
	p.xpath = &XPathSelector{Selector: selector, Namespaces: namespaces}
	return p
}

// WithJSONPath returns a copy of p evaluated against a JSONPath selection.
func (p Predicate) WithJSONPath(selector string) Predicate {
	p.jsonPath = &JSONPathSelector{Selector: selector}
	return p
}

func (p Predicate) Operator() Operator { return p.op }

// Fields returns a copy of the selector/value object of a leaf predicate.
func (p Predicate) Fields() map[string]any { return cloneFields(p.fields) }

// Children returns a copy of the nested predicates of and/or/not nodes.
func (p Predicate) Children() []Predicate { return append([]Predicate(nil), p.children...) }

func (p Predicate) Script() string { return p.script }

// CaseSensitive returns the case sensitivity flag and whether it was set.
func (p Predicate) CaseSensitive() (bool, bool) {
	if p.caseSensitive == nil {
		return false, false
	}
	return *p.caseSensitive, true
}

func (p Predicate) Except() string { return p.except }

func (p Predicate) XPath() *XPathSelector {
	if p.xpath == nil {
		return nil
	}
	c := *p.xpath
	return &c
}

func (p Predicate) JSONPath() *JSONPathSelector {
	if p.jsonPath == nil {
		return nil
	}
	c := *p.jsonPath
	return &c
}

// Validate checks that p and its children are well formed.
func (p Predicate) Validate() error {
	switch {
	case p.op.IsLeaf():
		if len(p.fields) == 0 {
			return fmt.Errorf("%w: %s predicate selects no fields", ErrInvalidImposter, p.op)
		}
	case p.op == OperatorAnd || p.op == OperatorOr:
		if len(p.children) == 0 {
			return fmt.Errorf("%w: %s predicate has no children", ErrInvalidImposter, p.op)
		}
	case p.op == OperatorNot:
		if len(p.children) != 1 {
			return fmt.Errorf("%w: not predicate needs exactly one child", ErrInvalidImposter)
		}
	case p.op == OperatorInject:
		if p.script == "" {
			return fmt.Errorf("%w: inject predicate has an empty script", ErrInvalidImposter)
		}
	default:
		return fmt.Errorf("%w: unknown predicate operator %q", ErrInvalidImposter, p.op)
	}

	if p.xpath != nil {
		if _, err := xpath.Compile(p.xpath.Selector); err != nil {
			return fmt.Errorf("%w: xpath selector %q: %v", ErrInvalidImposter, p.xpath.Selector, err)
		}
	}
	for _, child := range p.children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p Predicate) MarshalJSON() ([]byte, error) {
	node := make(map[string]any, 5)
	switch {
	case p.op.IsLeaf():
		fields := p.fields
		if fields == nil {
			fields = map[string]any{}
		}
		node[string(p.op)] = fields
	case p.op == OperatorAnd || p.op == OperatorOr:
		children := p.children
		if children == nil {
			children = []Predicate{}
		}
		node[string(p.op)] = children
	case p.op == OperatorNot:
		if len(p.children) != 1 {
			return nil, fmt.Errorf("%w: not predicate needs exactly one child", ErrInvalidImposter)
		}
		node[string(p.op)] = p.children[0]
	case p.op == OperatorInject:
		node[string(p.op)] = p.script
	default:
		return nil, fmt.Errorf("%w: unknown predicate operator %q", ErrInvalidImposter, p.op)
	}

	if p.caseSensitive != nil {
		node["caseSensitive"] = *p.caseSensitive
	}
	if p.except != "" {
		node["except"] = p.except
	}
	if p.xpath != nil {
		node["xpath"] = p.xpath
	}
	if p.jsonPath != nil {
		node["jsonpath"] = p.jsonPath
	}
	return json.Marshal(node)
}

func (p *Predicate) UnmarshalJSON(data []byte) error {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(data, &node); err != nil {
		return NewMalformedResponseError("predicate is not an object", err)
	}

	var found []Operator
	for _, op := range operators {
		if _, ok := node[string(op)]; ok {
			found = append(found, op)
		}
	}
	if len(found) != 1 {
		return NewMalformedResponseError(fmt.Sprintf("predicate must carry exactly one operator, found %d", len(found)), nil)
	}

	decoded := Predicate{op: found[0]}
	raw := node[string(decoded.op)]
	switch {
	case decoded.op.IsLeaf():
		if err := json.Unmarshal(raw, &decoded.fields); err != nil {
			return NewMalformedResponseError(fmt.Sprintf("%s predicate fields", decoded.op), err)
		}
	case decoded.op == OperatorAnd || decoded.op == OperatorOr:
		if err := json.Unmarshal(raw, &decoded.children); err != nil {
			return NewMalformedResponseError(fmt.Sprintf("%s predicate children", decoded.op), err)
		}
	case decoded.op == OperatorNot:
		var child Predicate
		if err := json.Unmarshal(raw, &child); err != nil {
			return NewMalformedResponseError("not predicate child", err)
		}
		decoded.children = []Predicate{child}
	case decoded.op == OperatorInject:
		if err := json.Unmarshal(raw, &decoded.script); err != nil {
			return NewMalformedResponseError("inject predicate script", err)
		}
	}

	var params struct {
		CaseSensitive *bool             `json:"caseSensitive"`
		Except        string            `json:"except"`
		XPath         *XPathSelector    `json:"xpath"`
		JSONPath      *JSONPathSelector `json:"jsonpath"`
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return NewMalformedResponseError("predicate parameters", err)
	}
	decoded.caseSensitive = params.CaseSensitive
	decoded.except = params.Except
	decoded.xpath = params.XPath
	decoded.jsonPath = params.JSONPath

	*p = decoded
	return nil
}
