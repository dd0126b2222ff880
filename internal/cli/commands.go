package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/asifhussain60/cortex-kg/internal/config"
	"github.com/asifhussain60/cortex-kg/internal/graph"
	"github.com/asifhussain60/cortex-kg/internal/store"
)

// openGraph loads config and opens the knowledge graph for CLI commands.
func openGraph() (config.Config, *graph.Graph, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return cfg, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	kg, err := graph.Open(dbPath, graph.Config{
		DecayThresholdDays: cfg.Decay.ThresholdDays,
		DecayDailyRate:     cfg.Decay.DailyRate,
		DecayFloor:         cfg.Decay.Floor,
		PriorityCurrent:    cfg.Priority.Current,
		PriorityFramework:  cfg.Priority.Framework,
		PriorityOther:      cfg.Priority.Other,
	})
	if err != nil {
		return cfg, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, kg, nil
}

// --- learn command ---

var (
	learnID         string
	learnType       string
	learnNamespace  string
	learnConfidence float64
	learnSource     string
	learnPinned     bool
	learnScope      string
	learnTags       []string
	learnInternal   bool
)

var learnCmd = &cobra.Command{
	Use:   "learn [title] [content]",
	Short: "Store a pattern",
	Long:  "Store a new pattern under a namespace. Pass \"-\" as content to read it from stdin. Framework namespaces (cortex.*) require --internal.",
	Args:  cobra.ExactArgs(2),
	RunE:  runLearn,
}

func runLearn(cmd *cobra.Command, args []string) error {
	content := args[1]
	if content == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read content from stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}

	_, kg, err := openGraph()
	if err != nil {
		return err
	}
	defer kg.Close()

	p, err := kg.Learn(store.Pattern{
		ID:         learnID,
		Title:      args[0],
		Content:    content,
		Type:       learnType,
		Confidence: learnConfidence,
		Source:     learnSource,
		Pinned:     learnPinned,
		Scope:      learnScope,
	}, learnNamespace, learnInternal)
	if err != nil {
		return err
	}

	for _, tag := range learnTags {
		if _, err := kg.AddTag(p.ID, tag); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}

	fmt.Printf("stored %s\n", graph.String(p))
	return nil
}

// --- search command ---

var (
	searchLimit     int
	searchMinConf   float64
	searchScope     string
	searchCurrent   string
	searchFramework bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search patterns",
	Long:  "BM25-ranked full-text search over pattern titles and content. With --current, hits in that namespace are prioritized.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	_, kg, err := openGraph()
	if err != nil {
		return err
	}
	defer kg.Close()

	var hits []store.SearchHit
	if searchCurrent != "" {
		hits, err = kg.SearchWithNamespacePriority(query, searchCurrent, searchFramework, searchLimit)
	} else {
		hits, err = kg.Search(query, graph.SearchOpts{
			MinConfidence: searchMinConf,
			Scope:         searchScope,
			Limit:         searchLimit,
		})
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s\n", i+1, h.Score, graph.String(&h.Pattern))
		fmt.Printf("   ns: %s\n", strings.Join(h.Namespaces, ", "))
	}
	return nil
}

// --- query command ---

var queryCmd = &cobra.Command{
	Use:   "query [glob]",
	Short: "List patterns by namespace glob",
	Long:  `List every pattern whose namespace matches a dotted glob, e.g. "workspace.app1.*".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	_, kg, err := openGraph()
	if err != nil {
		return err
	}
	defer kg.Close()

	patterns, err := kg.Query(args[0])
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		fmt.Println("No patterns found.")
		return nil
	}
	for _, p := range patterns {
		fmt.Printf("%s  (%s)\n", graph.String(&p), p.PrimaryNamespace())
	}
	return nil
}

// --- decay command ---

var decayDryRun bool

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run confidence decay now",
	Long:  "Apply scheduled confidence decay once. With --dry-run, only preview the candidates.",
	RunE:  runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	_, kg, err := openGraph()
	if err != nil {
		return err
	}
	defer kg.Close()

	if decayDryRun {
		candidates, err := kg.DecayCandidates()
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("No decay candidates.")
			return nil
		}
		for _, p := range candidates {
			fmt.Printf("%s  last accessed %s\n", graph.String(&p), millisToDate(p.LastAccessed))
		}
		return nil
	}

	report := kg.RunDecay()
	fmt.Printf("examined %d, reduced %d, deleted %d\n", report.Examined, report.Reduced, report.Deleted)
	if report.Err != nil {
		return fmt.Errorf("decay stopped with %d unprocessed: %w", len(report.Remaining), report.Err)
	}
	return nil
}

// --- tags command ---

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags by usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kg, err := openGraph()
		if err != nil {
			return err
		}
		defer kg.Close()

		tags, err := kg.AllTags()
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for _, tc := range tags {
			fmt.Printf("%4d  %s\n", tc.Count, tc.Tag)
		}
		return nil
	},
}

// --- health command ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage health",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, kg, err := openGraph()
		if err != nil {
			return err
		}
		defer kg.Close()

		h := kg.HealthCheck()
		fmt.Printf("%s: %s\n", h.Status, h.Detail)
		if h.Status != store.StatusHealthy {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	learnCmd.Flags().StringVar(&learnID, "id", "", "Pattern id (generated when empty)")
	learnCmd.Flags().StringVarP(&learnType, "type", "t", store.TypeSolution, "Pattern type (workflow|principle|anti_pattern|solution|context)")
	learnCmd.Flags().StringVarP(&learnNamespace, "namespace", "n", "", "Owning namespace (required)")
	learnCmd.Flags().Float64VarP(&learnConfidence, "confidence", "c", 0.8, "Initial confidence [0.0, 1.0]")
	learnCmd.Flags().StringVar(&learnSource, "source", "", "Provenance note")
	learnCmd.Flags().BoolVar(&learnPinned, "pin", false, "Exempt from decay")
	learnCmd.Flags().StringVar(&learnScope, "scope", store.ScopeGeneric, "Scope (generic|application)")
	learnCmd.Flags().StringSliceVar(&learnTags, "tag", nil, "Tags to attach (repeatable)")
	learnCmd.Flags().BoolVar(&learnInternal, "internal", false, "Claim the internal-caller capability (framework namespaces)")
	learnCmd.MarkFlagRequired("namespace")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinConf, "min-confidence", 0, "Minimum confidence")
	searchCmd.Flags().StringVar(&searchScope, "scope", "", "Filter by scope")
	searchCmd.Flags().StringVar(&searchCurrent, "current", "", "Current namespace for priority ranking")
	searchCmd.Flags().BoolVar(&searchFramework, "include-framework", true, "Include framework (cortex.*) patterns in priority ranking")

	decayCmd.Flags().BoolVar(&decayDryRun, "dry-run", false, "Preview candidates without mutating")
}

func millisToDate(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}
