// Package imports extracts static import statements from source files
// and infers cross-component dependencies by resolving each specifier to
// a file and mapping it through manifest ownership.
//
// Parsers are tree-sitter based, one per language, behind a common
// interface; adding a language is adding one more implementation.
package imports

import (
	"path/filepath"
	"strings"
)

// ImportRef is one extracted import specifier.
type ImportRef struct {
	Specifier string `json:"specifier"`
	Line      int    `json:"line"` // 1-indexed
}

// ImportParser is the per-language capability set: recognize files,
// extract specifiers.
type ImportParser interface {
	// Language returns a short lowercase identifier ("ts", "py", "rs").
	Language() string

	// SupportedExtensions returns handled extensions with leading dots.
	SupportedExtensions() []string

	// ParseImports extracts import specifiers from source content.
	ParseImports(path string, content []byte) ([]ImportRef, error)
}

// Registry dispatches files to parsers by extension.
type Registry struct {
	byExt map[string]ImportParser
}

// NewRegistry builds the default registry: TypeScript/JavaScript,
// Python, Rust.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]ImportParser)}
	r.Register(NewTypeScriptParser())
	r.Register(NewPythonParser())
	r.Register(NewRustParser())
	return r
}

// Register adds a parser for all its extensions.
func (r *Registry) Register(p ImportParser) {
	for _, ext := range p.SupportedExtensions() {
		r.byExt[ext] = p
	}
}

// ForFile returns the parser handling path, or nil.
func (r *Registry) ForFile(path string) ImportParser {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns every registered extension.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
