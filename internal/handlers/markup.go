package handlers

import (
	"regexp"
	"strings"
)

// Node is one element in a parsed markup tree.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []Node
}

var tagPattern = regexp.MustCompile(`(?s)<(\w+)([^>]*)>(.*?)</\s*\1\s*>`)
var attrPattern = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
var titlePattern = regexp.MustCompile(`(?is)<title>(.*?)</title>`)

// BasicMarkupParser implements Parser for RWML and HTML-like markup with
// a small recursive tag-tree reader. RWML is invented for this system
// with no existing parsing library; this is a from-scratch reader rather
// than a wrapped dependency.
type BasicMarkupParser struct{}

// NewBasicMarkupParser creates the default markup parser.
func NewBasicMarkupParser() *BasicMarkupParser { return &BasicMarkupParser{} }

// Parse extracts head.title and a shallow tag tree from data.
func (p *BasicMarkupParser) Parse(data []byte) (ParseResult, error) {
	text := string(data)
	title := ""
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}
	return ParseResult{Title: title, AST: parseNodes(text)}, nil
}

func parseNodes(text string) []Node {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	nodes := make([]Node, 0, len(matches))
	for _, m := range matches {
		tag, rawAttrs, inner := m[1], m[2], m[3]
		attrs := map[string]string{}
		for _, am := range attrPattern.FindAllStringSubmatch(rawAttrs, -1) {
			attrs[am[1]] = am[2]
		}
		children := parseNodes(inner)
		node := Node{Tag: tag, Attrs: attrs, Children: children}
		if len(children) == 0 {
			node.Text = strings.TrimSpace(inner)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
