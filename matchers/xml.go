// Package matchers holds Gomega matchers for asserting on mountebank
// snapshots and errors.
package matchers

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/onsi/gomega/types"

	"mountebank-client/models"
)

// ContainXMLElementMatcher checks that an XML document has a node matching
// XPath and, when Value is set, that the node's text equals it.
type ContainXMLElementMatcher struct {
	XPath string
	Value string
}

// ContainXMLElement succeeds when the XML has a node matching xpath. It
// accepts a string, []byte or a recorded models.HTTPRequest.
func ContainXMLElement(xpath string) types.GomegaMatcher {
	return &ContainXMLElementMatcher{XPath: xpath}
}

// ContainXMLElementWithValue also compares the node's inner text.
func ContainXMLElementWithValue(xpath, value string) types.GomegaMatcher {
	return &ContainXMLElementMatcher{XPath: xpath, Value: value}
}

func xmlText(actual any) (string, error) {
	switch v := actual.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case models.HTTPRequest:
		return v.BodyText(), nil
	case *models.HTTPRequest:
		if v == nil {
			return "", fmt.Errorf("ContainXMLElement got a nil *models.HTTPRequest")
		}
		return v.BodyText(), nil
	}
	return "", fmt.Errorf("ContainXMLElement expects a string, []byte or models.HTTPRequest. Got: %T", actual)
}

func (m *ContainXMLElementMatcher) Match(actual any) (bool, error) {
	text, err := xmlText(actual)
	if err != nil {
		return false, err
	}
	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return false, fmt.Errorf("failed to parse XML: %w", err)
	}
	node, err := xmlquery.Query(doc, m.XPath)
	if err != nil {
		return false, fmt.Errorf("invalid xpath %q: %w", m.XPath, err)
	}
	if node == nil {
		return false, nil
	}
	return m.Value == "" || node.InnerText() == m.Value, nil
}

func (m *ContainXMLElementMatcher) FailureMessage(actual any) string {
	if m.Value != "" {
		return fmt.Sprintf("Expected XML to contain element matching XPath '%s' with value '%s'. Got:\n%v", m.XPath, m.Value, actual)
	}
	return fmt.Sprintf("Expected XML to contain element matching XPath '%s'. Got:\n%v", m.XPath, actual)
}

func (m *ContainXMLElementMatcher) NegatedFailureMessage(actual any) string {
	if m.Value != "" {
		return fmt.Sprintf("Expected XML NOT to contain element matching XPath '%s' with value '%s'. Got:\n%v", m.XPath, m.Value, actual)
	}
	return fmt.Sprintf("Expected XML NOT to contain element matching XPath '%s'. Got:\n%v", m.XPath, actual)
}
