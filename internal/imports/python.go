package imports

import (
	"context"
	"path/filepath"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"varp/internal/logging"
)

// PythonParser extracts imports from Python sources via Tree-sitter.
// Both "import a.b" and "from .rel import x" forms are captured; the
// specifier is the module path as written, dots included.
type PythonParser struct {
	parser *sitter.Parser
}

// NewPythonParser creates a Python import parser.
func NewPythonParser() *PythonParser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PythonParser{parser: parser}
}

// Language returns "py".
func (p *PythonParser) Language() string { return "py" }

// SupportedExtensions returns [".py", ".pyw"].
func (p *PythonParser) SupportedExtensions() []string {
	return []string{".py", ".pyw"}
}

// ParseImports extracts module specifiers from Python source.
func (p *PythonParser) ParseImports(path string, content []byte) ([]ImportRef, error) {
	start := time.Now()

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var refs []ImportRef
	p.walkNode(tree.RootNode(), content, &refs)

	logging.ImportsDebug("PythonParser: %s - %d imports in %v",
		filepath.Base(path), len(refs), time.Since(start))
	return refs, nil
}

func (p *PythonParser) walkNode(node *sitter.Node, content []byte, refs *[]ImportRef) {
	getText := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			// import a.b, c.d as e
			for j := 0; j < int(child.NamedChildCount()); j++ {
				name := child.NamedChild(j)
				if name.Type() == "aliased_import" {
					name = name.ChildByFieldName("name")
				}
				if name != nil && name.Type() == "dotted_name" {
					refs2 := ImportRef{Specifier: getText(name), Line: int(name.StartPoint().Row) + 1}
					*refs = append(*refs, refs2)
				}
			}
		case "import_from_statement":
			// from a.b import x / from ..rel import y
			if module := child.ChildByFieldName("module_name"); module != nil {
				*refs = append(*refs, ImportRef{
					Specifier: getText(module),
					Line:      int(module.StartPoint().Row) + 1,
				})
			}
		default:
			// Imports can appear inside functions and conditionals.
			p.walkNode(child, content, refs)
		}
	}
}
