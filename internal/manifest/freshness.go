package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	zglob "github.com/mattn/go-zglob"

	"varp/internal/config"
	"varp/internal/logging"
	"varp/internal/types"
)

// TestFilePatterns match files excluded from source mtime: test files
// never gate doc freshness.
var TestFilePatterns = []string{"*.test.*", "*.spec.*", "__tests__/**"}

// DocFreshness is the freshness verdict for one doc.
type DocFreshness struct {
	Doc         Doc       `json:"doc"`
	Stale       bool      `json:"stale"`
	SourceMtime time.Time `json:"source_mtime"`
	DocMtime    time.Time `json:"doc_mtime"` // effective: max(doc, ack)
}

func isTestFile(rel string) bool {
	base := filepath.Base(rel)
	slashRel := filepath.ToSlash(rel)
	for _, pattern := range TestFilePatterns {
		if ok, err := zglob.Match(pattern, base); err == nil && ok {
			return true
		}
		if ok, err := zglob.Match(pattern, slashRel); err == nil && ok {
			return true
		}
	}
	return false
}

// SourceMtime computes the maximum mtime among a component's source
// files, excluding test files and its discovered docs.
func SourceMtime(m *Manifest, name string) (time.Time, error) {
	docPaths := make(map[string]bool)
	for _, doc := range DiscoverDocs(m, name) {
		docPaths[doc.Path] = true
	}

	var max time.Time
	for _, root := range m.ComponentPaths(name) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries do not gate freshness
			}
			if d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if isTestFile(rel) || docPaths[filepath.Clean(path)] || strings.HasSuffix(path, ".ack") {
				return nil
			}
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}
			if info.ModTime().After(max) {
				max = info.ModTime()
			}
			return nil
		})
		if err != nil {
			return time.Time{}, &types.FileSystemError{Path: root, Op: "walk", Err: err}
		}
	}
	return max, nil
}

// ackPath is the companion file recording a freshness acknowledgment.
func ackPath(docPath string) string { return docPath + ".ack" }

// effectiveDocMtime is max(doc mtime, ack mtime).
func effectiveDocMtime(docPath string) (time.Time, error) {
	info, err := os.Stat(docPath)
	if err != nil {
		return time.Time{}, &types.FileSystemError{Path: docPath, Op: "stat", Err: err}
	}
	mtime := info.ModTime()
	if ackInfo, err := os.Stat(ackPath(docPath)); err == nil && ackInfo.ModTime().After(mtime) {
		mtime = ackInfo.ModTime()
	}
	return mtime, nil
}

// CheckFreshness evaluates every discovered doc of a component. A doc is
// stale iff source_mtime - effective_doc_mtime strictly exceeds the
// staleness threshold; the grace window suppresses batch-edit noise.
func CheckFreshness(m *Manifest, name string, cfg config.FreshnessConfig) ([]DocFreshness, error) {
	sourceMtime, err := SourceMtime(m, name)
	if err != nil {
		return nil, err
	}
	threshold := time.Duration(cfg.StalenessThresholdMs) * time.Millisecond

	var results []DocFreshness
	for _, doc := range DiscoverDocs(m, name) {
		docMtime, err := effectiveDocMtime(doc.Path)
		if err != nil {
			return nil, err
		}
		results = append(results, DocFreshness{
			Doc:         doc,
			Stale:       sourceMtime.Sub(docMtime) > threshold,
			SourceMtime: sourceMtime,
			DocMtime:    docMtime,
		})
	}
	logging.ManifestDebug("CheckFreshness(%s): %d docs, source mtime %s", name, len(results), sourceMtime)
	return results, nil
}

// AcknowledgeDoc records that a stale doc was reviewed without edits.
// Subsequent checks treat the ack time as the doc's effective mtime.
func AcknowledgeDoc(docPath string) error {
	now := time.Now()
	content := fmt.Sprintf("acknowledged %s\n", now.Format(time.RFC3339))
	if err := os.WriteFile(ackPath(docPath), []byte(content), 0644); err != nil {
		return &types.FileSystemError{Path: ackPath(docPath), Op: "write", Err: err}
	}
	return nil
}

// StaleComponentsSince returns the subset of components whose source
// mtime is after baseline. Schedulers use it to decide whether a
// suspended context must be resumed against fresh state.
func StaleComponentsSince(m *Manifest, baseline time.Time, components []string) ([]string, error) {
	var stale []string
	for _, name := range components {
		if _, ok := m.Components[name]; !ok {
			return nil, &types.UnknownRefError{Ref: name}
		}
		mtime, err := SourceMtime(m, name)
		if err != nil {
			return nil, err
		}
		if mtime.After(baseline) {
			stale = append(stale, name)
		}
	}
	sortStrings(stale)
	return stale, nil
}
