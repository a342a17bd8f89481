package imports

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"varp/internal/logging"
)

// RustParser extracts use declarations from Rust sources via
// Tree-sitter. Grouped imports expand: use crate::{a, b::c} yields
// crate::a and crate::b::c.
type RustParser struct {
	parser *sitter.Parser
}

// NewRustParser creates a Rust import parser.
func NewRustParser() *RustParser {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	return &RustParser{parser: parser}
}

// Language returns "rs".
func (p *RustParser) Language() string { return "rs" }

// SupportedExtensions returns [".rs"].
func (p *RustParser) SupportedExtensions() []string {
	return []string{".rs"}
}

// ParseImports extracts use paths from Rust source.
func (p *RustParser) ParseImports(path string, content []byte) ([]ImportRef, error) {
	start := time.Now()

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var refs []ImportRef
	p.walkNode(tree.RootNode(), content, &refs)

	logging.ImportsDebug("RustParser: %s - %d use paths in %v",
		filepath.Base(path), len(refs), time.Since(start))
	return refs, nil
}

func (p *RustParser) walkNode(node *sitter.Node, content []byte, refs *[]ImportRef) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "use_declaration" {
			if arg := child.ChildByFieldName("argument"); arg != nil {
				line := int(arg.StartPoint().Row) + 1
				for _, path := range expandUseTree(arg, content) {
					*refs = append(*refs, ImportRef{Specifier: path, Line: line})
				}
			}
			continue
		}
		// use declarations also appear inside mod blocks and functions.
		p.walkNode(child, content, refs)
	}
}

// expandUseTree flattens a use tree into full :: paths.
func expandUseTree(node *sitter.Node, content []byte) []string {
	text := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}

	switch node.Type() {
	case "identifier", "crate", "self", "super", "scoped_identifier":
		return []string{text(node)}
	case "use_as_clause":
		if path := node.ChildByFieldName("path"); path != nil {
			return expandUseTree(path, content)
		}
		return nil
	case "use_wildcard":
		// use a::b::* pulls in the module itself.
		if node.NamedChildCount() > 0 {
			return expandUseTree(node.NamedChild(0), content)
		}
		return nil
	case "scoped_use_list":
		prefix := ""
		if path := node.ChildByFieldName("path"); path != nil {
			prefix = text(path)
		}
		var out []string
		if list := node.ChildByFieldName("list"); list != nil {
			for _, sub := range expandUseTree(list, content) {
				if sub == "self" {
					out = append(out, prefix)
					continue
				}
				if prefix != "" {
					out = append(out, prefix+"::"+sub)
				} else {
					out = append(out, sub)
				}
			}
		}
		return out
	case "use_list":
		var out []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			out = append(out, expandUseTree(node.NamedChild(i), content)...)
		}
		return out
	default:
		// Attribute-decorated or otherwise wrapped trees: take the raw
		// text as a single path rather than dropping it.
		raw := strings.TrimSpace(text(node))
		if raw == "" {
			return nil
		}
		return []string{raw}
	}
}
