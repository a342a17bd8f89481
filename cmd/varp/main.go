// varp is the CLI surface over the analysis core: assemble the codebase
// graph, schedule a plan, resolve docs for a touch set, list hotspots.
// All business logic lives in internal/; this package only plumbs
// arguments and renders output.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"varp/internal/graph"
	"varp/internal/logging"
	"varp/internal/manifest"
	"varp/internal/plan"
	"varp/internal/scheduler"
	"varp/internal/types"
)

var (
	// Global flags
	verbose      bool
	workspace    string
	manifestPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "varp",
	Short: "varp - manifest-driven codebase analysis and scheduling",
	Long: `varp analyzes a repository against its component manifest:
structural imports, git co-change coupling, doc freshness, and
data-hazard scheduling over declarative plans.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

func resolveManifest() (string, error) {
	if manifestPath != "" {
		return manifestPath, nil
	}
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
	}
	for _, name := range []string{"varp.yaml", "varp.yml", "manifest.yaml"} {
		candidate := filepath.Join(ws, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no manifest found under %s (tried varp.yaml, varp.yml, manifest.yaml)", ws)
}

func emitJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Assemble and print the codebase graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveManifest()
		if err != nil {
			return err
		}
		withCoupling, _ := cmd.Flags().GetBool("coupling")
		g, err := graph.Assemble(cmd.Context(), graph.Options{
			ManifestPath: path,
			Root:         workspace,
			WithCoupling: withCoupling,
		})
		if err != nil {
			return err
		}
		return emitJSON(g)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <plan.xml>",
	Short: "Detect hazards and compute waves for a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manPath, err := resolveManifest()
		if err != nil {
			return err
		}
		m, err := manifest.Parse(manPath)
		if err != nil {
			return err
		}
		p, err := plan.Parse(args[0])
		if err != nil {
			return err
		}
		schedule, err := scheduler.Schedule(p.Tasks)
		if err != nil {
			return err
		}
		if _, err := plan.Validate(p, m, schedule.Hazards, nil); err != nil {
			return err
		}
		renderSchedule(schedule)
		return nil
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Resolve docs for a touch set",
	RunE: func(cmd *cobra.Command, args []string) error {
		manPath, err := resolveManifest()
		if err != nil {
			return err
		}
		m, err := manifest.Parse(manPath)
		if err != nil {
			return err
		}
		reads, _ := cmd.Flags().GetStringSlice("reads")
		writes, _ := cmd.Flags().GetStringSlice("writes")
		docs := manifest.ResolveDocsForTouches(m, types.Touches{Reads: reads, Writes: writes})
		return emitJSON(docs)
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Render the declared component dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		manPath, err := resolveManifest()
		if err != nil {
			return err
		}
		m, err := manifest.Parse(manPath)
		if err != nil {
			return err
		}
		fmt.Print(manifest.RenderDependencyGraph(m))
		return nil
	},
}

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "List churn hotspots from the co-change graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		manPath, err := resolveManifest()
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		g, err := graph.Assemble(cmd.Context(), graph.Options{ManifestPath: manPath, Root: workspace})
		if err != nil {
			return err
		}
		renderHotspots(g, top)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "repository root (default: cwd)")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "manifest path (default: varp.yaml in workspace)")

	graphCmd.Flags().Bool("coupling", false, "include the coupling matrix")
	docsCmd.Flags().StringSlice("reads", nil, "components read")
	docsCmd.Flags().StringSlice("writes", nil, "components written")
	hotspotsCmd.Flags().Int("top", 10, "number of hotspots")

	rootCmd.AddCommand(graphCmd, scheduleCmd, docsCmd, depsCmd, hotspotsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
