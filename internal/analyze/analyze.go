// Package analyze inspects upstream research text to decide whether
// downstream alerting actions should fire.
package analyze

import (
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultRiskTerms is the fallback term list used when the deployment
// does not configure its own.
var DefaultRiskTerms = []string{
	"risk", "competition", "disruption", "geopolitical", "regulatory",
	"failure", "loss", "debt", "drawdown", "negative", "decrease",
	"down", "decline", "crisis", "impairment",
}

// ParseTerms splits a comma-separated term list, lowercasing and
// trimming each entry. Empty entries are dropped.
func ParseTerms(s string) []string {
	var terms []string
	for _, term := range strings.Split(s, ",") {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ContainsAny reports whether the lowercased text contains at least one
// of the terms.
func ContainsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Flatten reduces possibly-HTML research text to plain text so term
// scanning does not trip over markup. Plain text passes through
// unchanged.
func Flatten(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	nodes, err := xhtml.ParseFragment(strings.NewReader(text), &xhtml.Node{
		Type:     xhtml.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
	})
	if err != nil {
		return text
	}

	var sb strings.Builder
	for _, n := range nodes {
		flattenNode(&sb, n)
	}
	return strings.TrimSpace(sb.String())
}

func flattenNode(sb *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		sb.WriteString(n.Data)
	case xhtml.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			sb.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenNode(sb, c)
	}
}
