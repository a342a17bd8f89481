package cochange

import (
	"encoding/json"
	"os"
	"path/filepath"

	"varp/internal/logging"
	"varp/internal/types"
)

// CacheFileName is the co-change cache location under the repo root.
const CacheFileName = ".varp/co-change.json"

// cacheFile is the serialized cache schema.
type cacheFile struct {
	Edges                map[string]*Edge  `json:"edges"`
	FileFrequencies      map[string]uint64 `json:"file_frequencies"`
	TotalCommitsAnalyzed uint64            `json:"total_commits_analyzed"`
	TotalCommitsFiltered uint64            `json:"total_commits_filtered"`
	LastSHA              string            `json:"last_sha"`
	ConfigFingerprint    string            `json:"config_fingerprint"`
}

// loadCache reads the cache file. A missing file returns (nil, nil); a
// corrupt file returns (nil, nil) after a warning so the caller falls
// back to a full scan.
func loadCache(root string) (*cacheFile, error) {
	path := filepath.Join(root, CacheFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &types.FileSystemError{Path: path, Op: "read", Err: err}
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		logging.Get(logging.CategoryCochange).Warn("Corrupt cache at %s, falling back to full scan: %v", path, err)
		return nil, nil
	}
	if cf.Edges == nil || cf.FileFrequencies == nil || !ValidSHA(cf.LastSHA) {
		logging.Get(logging.CategoryCochange).Warn("Cache at %s missing required fields, falling back to full scan", path)
		return nil, nil
	}
	return &cf, nil
}

// saveCache writes the cache atomically: temp file in the same
// directory, then rename. Concurrent writers to one .varp/ are the
// orchestrator's problem, not ours.
func saveCache(root string, g *Graph, fingerprint string) error {
	path := filepath.Join(root, CacheFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &types.FileSystemError{Path: filepath.Dir(path), Op: "mkdir", Err: err}
	}

	cf := cacheFile{
		Edges:                g.Edges,
		FileFrequencies:      g.FileFrequencies,
		TotalCommitsAnalyzed: g.TotalCommitsAnalyzed,
		TotalCommitsFiltered: g.TotalCommitsFiltered,
		LastSHA:              g.LastSHA,
		ConfigFingerprint:    fingerprint,
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".co-change-*.tmp")
	if err != nil {
		return &types.FileSystemError{Path: path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &types.FileSystemError{Path: tmpName, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &types.FileSystemError{Path: tmpName, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &types.FileSystemError{Path: path, Op: "rename", Err: err}
	}
	logging.CochangeDebug("Cache saved: %d edges, last_sha=%s", len(g.Edges), g.LastSHA)
	return nil
}

// graphFromCache rebuilds a Graph from the cache contents.
func graphFromCache(cf *cacheFile) *Graph {
	return &Graph{
		Edges:                cf.Edges,
		FileFrequencies:      cf.FileFrequencies,
		TotalCommitsAnalyzed: cf.TotalCommitsAnalyzed,
		TotalCommitsFiltered: cf.TotalCommitsFiltered,
		LastSHA:              cf.LastSHA,
	}
}
