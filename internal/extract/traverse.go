package extract

import (
	"github.com/antchfx/xmlquery"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// walkJSON collects endpoint candidates from every string leaf of a decoded
// JSON document. Objects contribute their values (keys are ignored), arrays
// contribute their elements in order, and strings are scanned. Numbers,
// booleans, and nulls contribute nothing, even when a number happens to look
// like a port.
func walkJSON(v any, m *Matcher) []model.ProxyToken {
	switch node := v.(type) {
	case string:
		return m.Scan(node)
	case []any:
		var tokens []model.ProxyToken
		for _, elem := range node {
			tokens = append(tokens, walkJSON(elem, m)...)
		}
		return tokens
	case map[string]any:
		var tokens []model.ProxyToken
		for _, value := range node {
			tokens = append(tokens, walkJSON(value, m)...)
		}
		return tokens
	default:
		return nil
	}
}

// walkXML collects endpoint candidates from the text and CDATA nodes under
// n, visiting children in document order. Mixed content is covered because
// every text child of an element is scanned, including text that follows a
// nested element. Attribute values, comments, and declarations are not
// scanned.
func walkXML(n *xmlquery.Node, m *Matcher) []model.ProxyToken {
	if n == nil {
		return nil
	}

	var tokens []model.ProxyToken
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			tokens = append(tokens, m.Scan(child.Data)...)
		case xmlquery.ElementNode:
			tokens = append(tokens, walkXML(child, m)...)
		}
	}
	return tokens
}
