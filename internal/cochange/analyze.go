package cochange

import (
	"context"
	"time"

	"varp/internal/config"
	"varp/internal/logging"
	"varp/internal/types"
)

// Analyze builds the co-change graph for the repository at root,
// consulting and updating the cache at .varp/co-change.json.
//
// Strategy selection:
//   - current: cache is at HEAD with a matching filter fingerprint
//   - incremental: fingerprint matches, scan last_sha..HEAD and merge
//   - full: no usable cache, rescan the entire history
//
// A missing git binary or non-repository root yields an empty graph
// with GitUnavailable set; that is advisory, not an error.
func Analyze(ctx context.Context, root string, cfg config.CochangeConfig) (*Graph, error) {
	start := time.Now()

	if !gitAvailable(ctx, root) {
		logging.Cochange("Git unavailable at %s, returning empty graph", root)
		g := NewGraph()
		g.GitUnavailable = true
		g.Strategy = StrategyFull
		return g, nil
	}

	head, err := headSHA(ctx, root)
	if err != nil {
		return nil, err
	}

	fingerprint := cfg.Fingerprint()
	cached, err := loadCache(root)
	if err != nil {
		return nil, err
	}

	if cached != nil && cached.ConfigFingerprint == fingerprint {
		if cached.LastSHA == head {
			g := graphFromCache(cached)
			g.Strategy = StrategyCurrent
			logging.CochangeDebug("Cache current at %s", head)
			return g, nil
		}
		return analyzeRange(ctx, root, cfg, fingerprint, graphFromCache(cached), cached.LastSHA+".."+head, head, StrategyIncremental, start)
	}

	return analyzeRange(ctx, root, cfg, fingerprint, NewGraph(), "", head, StrategyFull, start)
}

// analyzeRange scans one commit range into a fresh delta graph, merges
// it over base, and persists. On cancellation nothing is written.
func analyzeRange(ctx context.Context, root string, cfg config.CochangeConfig, fingerprint string, base *Graph, rangeSpec, head string, strategy Strategy, start time.Time) (*Graph, error) {
	delta := NewGraph()
	filter := newCommitFilter(cfg)

	err := streamLog(ctx, root, rangeSpec, func(c Commit) error {
		if err := ctx.Err(); err != nil {
			return &types.CancelledError{Op: "co-change scan"}
		}
		files, dropped := filter.Apply(c)
		if dropped {
			delta.TotalCommitsFiltered++
			return nil
		}
		delta.TotalCommitsAnalyzed++
		delta.apply(files)
		return nil
	})
	if err != nil {
		return nil, err
	}

	base.Merge(delta)
	base.LastSHA = head
	base.Strategy = strategy

	if err := saveCache(root, base, fingerprint); err != nil {
		return nil, err
	}

	logging.Cochange("Co-change %s scan: %d commits analyzed, %d filtered, %d edges in %v",
		strategy, base.TotalCommitsAnalyzed, base.TotalCommitsFiltered, len(base.Edges), time.Since(start))
	return base, nil
}

// AnalyzeCommits folds an in-memory commit sequence through the
// configured filters into a fresh graph. It backs the analyzer's tests
// and any caller that already holds commit data.
func AnalyzeCommits(commits []Commit, cfg config.CochangeConfig) *Graph {
	g := NewGraph()
	filter := newCommitFilter(cfg)
	for _, c := range commits {
		files, dropped := filter.Apply(c)
		if dropped {
			g.TotalCommitsFiltered++
			continue
		}
		g.TotalCommitsAnalyzed++
		g.apply(files)
	}
	return g
}
