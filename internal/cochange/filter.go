package cochange

import (
	"path/filepath"
	"strings"

	zglob "github.com/mattn/go-zglob"

	"varp/internal/config"
)

// commitFilter applies the configured noise filters in their fixed
// order: size ceiling, then message patterns, then per-file globs.
type commitFilter struct {
	ceiling         int
	messageExcludes []string
	fileExcludes    []string
}

func newCommitFilter(cfg config.CochangeConfig) *commitFilter {
	lowered := make([]string, len(cfg.MessageExcludes))
	for i, m := range cfg.MessageExcludes {
		lowered[i] = strings.ToLower(m)
	}
	return &commitFilter{
		ceiling:         cfg.CommitSizeCeiling,
		messageExcludes: lowered,
		fileExcludes:    cfg.FileExcludes,
	}
}

// Apply returns the files that survive filtering and whether the commit
// was dropped entirely. The ceiling counts files before per-file
// exclusion; a commit of exactly ceiling files is kept.
func (f *commitFilter) Apply(c Commit) (files []string, dropped bool) {
	if f.ceiling > 0 && len(c.Files) > f.ceiling {
		return nil, true
	}

	subject := strings.ToLower(c.Subject)
	for _, pattern := range f.messageExcludes {
		if strings.Contains(subject, pattern) {
			return nil, true
		}
	}

	for _, file := range c.Files {
		if f.excludesFile(file) {
			continue
		}
		files = append(files, file)
	}
	return files, false
}

func (f *commitFilter) excludesFile(path string) bool {
	slashPath := filepath.ToSlash(path)
	base := filepath.Base(slashPath)
	for _, pattern := range f.fileExcludes {
		if ok, err := zglob.Match(pattern, slashPath); err == nil && ok {
			return true
		}
		// Basename patterns like *.lock should match at any depth.
		if !strings.Contains(pattern, "/") {
			if ok, err := zglob.Match(pattern, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}
