package imports

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	zglob "github.com/mattn/go-zglob"

	"varp/internal/logging"
)

// tsExtensions are tried in order when a specifier omits one.
var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// aliasRule is one compiler path alias. Pattern and targets may carry a
// single * wildcard.
type aliasRule struct {
	pattern string
	targets []string // absolute
}

// resolver turns specifiers into absolute file paths using project
// configuration discovered alongside the manifest.
type resolver struct {
	root     string
	aliases  []aliasRule
	baseURL  string
	packages map[string]string // workspace package name -> absolute dir
	pyRoots  []string          // roots tried for absolute python modules
}

func newResolver(root string, pyRoots []string) *resolver {
	r := &resolver{root: root, packages: make(map[string]string), pyRoots: pyRoots}
	r.loadTsconfig(filepath.Join(root, "tsconfig.json"), make(map[string]bool))
	r.loadWorkspaces()
	return r
}

// tsconfigFile is the slice of tsconfig.json the resolver cares about.
type tsconfigFile struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// loadTsconfig loads a tsconfig and its extends chain, parents first so
// child settings win. Cycles in extends terminate via the seen set.
func (r *resolver) loadTsconfig(path string, seen map[string]bool) {
	abs, err := filepath.Abs(path)
	if err != nil || seen[abs] {
		return
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return
	}

	var cfg tsconfigFile
	if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
		logging.Get(logging.CategoryImports).Warn("Unparseable tsconfig at %s: %v", abs, err)
		return
	}

	dir := filepath.Dir(abs)
	if cfg.Extends != "" {
		parent := cfg.Extends
		if !strings.HasSuffix(parent, ".json") {
			parent += ".json"
		}
		if !filepath.IsAbs(parent) {
			parent = filepath.Join(dir, parent)
		}
		r.loadTsconfig(parent, seen)
	}

	base := dir
	if cfg.CompilerOptions.BaseURL != "" {
		base = filepath.Join(dir, cfg.CompilerOptions.BaseURL)
		r.baseURL = base
	}
	patterns := make([]string, 0, len(cfg.CompilerOptions.Paths))
	for pattern := range cfg.CompilerOptions.Paths {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	rules := make([]aliasRule, 0, len(patterns))
	for _, pattern := range patterns {
		targets := make([]string, 0, len(cfg.CompilerOptions.Paths[pattern]))
		for _, t := range cfg.CompilerOptions.Paths[pattern] {
			targets = append(targets, filepath.Join(base, t))
		}
		rules = append(rules, aliasRule{pattern: pattern, targets: targets})
	}
	// The parents' rules are already loaded; this config's go in front of
	// them so they are tried first.
	r.aliases = append(rules, r.aliases...)
}

// stripJSONComments removes // and /* */ comments so tsconfig's JSONC
// dialect parses with encoding/json. String contents are preserved.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				out = append(out, data[i+1])
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}
	return out
}

// packageJSON is the slice of package.json the resolver cares about.
type packageJSON struct {
	Name       string          `json:"name"`
	Workspaces json.RawMessage `json:"workspaces"`
}

// loadWorkspaces builds the workspace package graph from the root
// package.json, if one is discoverable.
func (r *resolver) loadWorkspaces() {
	data, err := os.ReadFile(filepath.Join(r.root, "package.json"))
	if err != nil {
		return
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	var globs []string
	if len(pkg.Workspaces) > 0 {
		// workspaces is either a list or {"packages": [...]}
		if err := json.Unmarshal(pkg.Workspaces, &globs); err != nil {
			var wrapped struct {
				Packages []string `json:"packages"`
			}
			if err := json.Unmarshal(pkg.Workspaces, &wrapped); err == nil {
				globs = wrapped.Packages
			}
		}
	}

	for _, g := range globs {
		matches, err := zglob.Glob(filepath.Join(r.root, g))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, dir := range matches {
			wsData, err := os.ReadFile(filepath.Join(dir, "package.json"))
			if err != nil {
				continue
			}
			var wsPkg packageJSON
			if err := json.Unmarshal(wsData, &wsPkg); err != nil || wsPkg.Name == "" {
				continue
			}
			r.packages[wsPkg.Name] = dir
		}
	}
	if len(r.packages) > 0 {
		logging.ImportsDebug("Workspace package graph: %d packages", len(r.packages))
	}
}

// resolveTS resolves a TS/JS specifier: aliases first, then relative
// paths, then workspace packages. Anything else is external.
func (r *resolver) resolveTS(fromFile, specifier string) (string, bool) {
	for _, rule := range r.aliases {
		if resolved, ok := r.applyAlias(rule, specifier); ok {
			return resolved, true
		}
	}

	if strings.HasPrefix(specifier, ".") {
		return tryTSFile(filepath.Join(filepath.Dir(fromFile), specifier))
	}

	if r.baseURL != "" {
		if resolved, ok := tryTSFile(filepath.Join(r.baseURL, specifier)); ok {
			return resolved, true
		}
	}

	// Package specifier: longest matching workspace package name wins
	// (scoped names contain a slash themselves).
	name := specifier
	sub := ""
	for {
		if dir, ok := r.packages[name]; ok {
			if sub == "" {
				if resolved, ok := tryTSFile(filepath.Join(dir, "src", "index")); ok {
					return resolved, true
				}
				return tryTSFile(filepath.Join(dir, "index"))
			}
			if resolved, ok := tryTSFile(filepath.Join(dir, sub)); ok {
				return resolved, true
			}
			return tryTSFile(filepath.Join(dir, "src", sub))
		}
		slash := strings.LastIndex(name, "/")
		if slash < 0 {
			return "", false
		}
		if sub == "" {
			sub = name[slash+1:]
		} else {
			sub = name[slash+1:] + "/" + sub
		}
		name = name[:slash]
	}
}

func (r *resolver) applyAlias(rule aliasRule, specifier string) (string, bool) {
	star := strings.Index(rule.pattern, "*")
	if star < 0 {
		if specifier != rule.pattern {
			return "", false
		}
		for _, target := range rule.targets {
			if resolved, ok := tryTSFile(target); ok {
				return resolved, true
			}
		}
		return "", false
	}

	prefix, suffix := rule.pattern[:star], rule.pattern[star+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	matched := specifier[len(prefix) : len(specifier)-len(suffix)]
	for _, target := range rule.targets {
		candidate := strings.Replace(target, "*", matched, 1)
		if resolved, ok := tryTSFile(candidate); ok {
			return resolved, true
		}
	}
	return "", false
}

// tryTSFile attempts a path as-is, with each standard extension, and as
// a directory index.
func tryTSFile(path string) (string, bool) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Clean(path), true
	}
	for _, ext := range tsExtensions {
		candidate := path + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate), true
		}
	}
	for _, ext := range tsExtensions {
		candidate := filepath.Join(path, "index"+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}

// resolvePython resolves "a.b.c" against the scan roots and relative
// "..x" forms against the importing file.
func (r *resolver) resolvePython(fromFile, specifier string) (string, bool) {
	dots := 0
	for dots < len(specifier) && specifier[dots] == '.' {
		dots++
	}
	rest := strings.ReplaceAll(specifier[dots:], ".", string(filepath.Separator))

	if dots > 0 {
		dir := filepath.Dir(fromFile)
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		return tryPythonFile(filepath.Join(dir, rest))
	}

	for _, root := range r.pyRoots {
		if resolved, ok := tryPythonFile(filepath.Join(root, rest)); ok {
			return resolved, true
		}
	}
	return "", false
}

func tryPythonFile(path string) (string, bool) {
	if info, err := os.Stat(path + ".py"); err == nil && !info.IsDir() {
		return filepath.Clean(path + ".py"), true
	}
	initFile := filepath.Join(path, "__init__.py")
	if info, err := os.Stat(initFile); err == nil && !info.IsDir() {
		return filepath.Clean(initFile), true
	}
	return "", false
}

// resolveRust resolves crate::/self::/super:: use paths against the
// importing file's crate layout. Plain identifiers are external crates.
func (r *resolver) resolveRust(fromFile, specifier string) (string, bool) {
	segs := strings.Split(specifier, "::")
	if len(segs) == 0 {
		return "", false
	}

	var dir string
	switch segs[0] {
	case "crate":
		dir = crateSrcDir(fromFile)
		segs = segs[1:]
	case "self":
		dir = filepath.Dir(fromFile)
		segs = segs[1:]
	case "super":
		// One super lands in the enclosing module's directory; each
		// additional super climbs once more.
		dir = filepath.Dir(fromFile)
		segs = segs[1:]
		for len(segs) > 0 && segs[0] == "super" {
			dir = filepath.Dir(dir)
			segs = segs[1:]
		}
	default:
		return "", false
	}
	if dir == "" {
		return "", false
	}

	// The final segment is often an item, not a module; retry without it.
	for drop := 0; drop <= 1 && len(segs) > drop; drop++ {
		mod := segs[:len(segs)-drop]
		if len(mod) == 0 {
			continue
		}
		path := filepath.Join(append([]string{dir}, mod...)...)
		if info, err := os.Stat(path + ".rs"); err == nil && !info.IsDir() {
			return filepath.Clean(path + ".rs"), true
		}
		modFile := filepath.Join(path, "mod.rs")
		if info, err := os.Stat(modFile); err == nil && !info.IsDir() {
			return filepath.Clean(modFile), true
		}
	}
	return "", false
}

// crateSrcDir walks up from a file to the nearest Cargo.toml and
// returns its src/ directory.
func crateSrcDir(fromFile string) string {
	dir := filepath.Dir(fromFile)
	for {
		if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err == nil {
			src := filepath.Join(dir, "src")
			if info, err := os.Stat(src); err == nil && info.IsDir() {
				return src
			}
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve maps one specifier to an absolute file path. ok is false for
// external or unresolvable specifiers; those are skipped, not errors.
func (r *resolver) Resolve(lang, fromFile, specifier string) (string, bool) {
	switch lang {
	case "ts":
		return r.resolveTS(fromFile, specifier)
	case "py":
		return r.resolvePython(fromFile, specifier)
	case "rs":
		return r.resolveRust(fromFile, specifier)
	default:
		return "", false
	}
}
