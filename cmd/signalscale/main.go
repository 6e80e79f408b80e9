package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/database"
	"github.com/signalscale/signalscale/internal/orchestrate"
	"github.com/signalscale/signalscale/internal/server"
	"github.com/signalscale/signalscale/internal/signal"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "signalscale",
	Short:   "Brand competitive intelligence from public web signals",
	Long:    "SignalScale resolves brands to their official domains, collects site, storefront, social, and news signals, and scores them into competitive intelligence reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys may live in a local .env during development.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("signalscale", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/signalscale/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure timeouts, API keys, and the completion provider.")
		return nil
	},
}

// --- resolve command ---

var resolveURL string

var resolveCmd = &cobra.Command{
	Use:   "resolve [brand name]",
	Short: "Resolve a brand name to its official domain",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		runner := orchestrate.New(cfg)

		ent := runner.ResolveBrand(context.Background(), name, resolveURL)
		fmt.Printf("Brand: %s\n", ent.Name)
		if ent.OfficialDomain != "" {
			fmt.Printf("Domain: %s\n", ent.OfficialDomain)
		} else {
			fmt.Println("Domain: (not found)")
		}
		fmt.Printf("Confidence: %.2f\n", ent.Confidence)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveURL, "url", "u", "", "Hint URL to verify instead of guessing")
}

// --- analyze command ---

var (
	analyzeURL         string
	analyzeCompetitors []string
	analyzeCategory    string
	analyzeWindowDays  int
	analyzeMode        string
	analyzeJSON        bool
	analyzeNoSave      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [brand name]",
	Short: "Run a full competitive analysis for a brand",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := orchestrate.Request{
			Brand:      orchestrate.EntityInput{Name: strings.Join(args, " "), URL: analyzeURL},
			Category:   analyzeCategory,
			WindowDays: analyzeWindowDays,
			Mode:       analyzeMode,
		}
		for _, raw := range analyzeCompetitors {
			req.Competitors = append(req.Competitors, orchestrate.ParseEntityInput(raw))
		}

		runner := orchestrate.New(cfg)
		report := runner.Run(context.Background(), req)

		if !analyzeNoSave {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if id, err := db.SaveReport(report); err != nil {
				log.Printf("Saving report failed: %v", err)
			} else {
				fmt.Printf("Report saved as #%d\n\n", id)
			}
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printReport(report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Brand site URL (skips domain guessing)")
	analyzeCmd.Flags().StringArrayVarP(&analyzeCompetitors, "competitor", "C", nil, `Competitor as "Name, URL" (repeatable)`)
	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "Brand category (e.g. athletic, luxury, streetwear)")
	analyzeCmd.Flags().IntVar(&analyzeWindowDays, "window-days", 0, "Social/news lookback window in days")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", orchestrate.ModeStandard, "Analysis mode: standard or fast")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Skip saving the report to history")
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and show past analysis reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		metas, err := db.ListReports(historyLimit)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("No reports yet. Run 'signalscale analyze' first.")
			return nil
		}

		fmt.Println("Reports:")
		for _, m := range metas {
			fmt.Printf("  [%d] %s  score %d, %d signals, %d competitors (%s, %s)\n",
				m.ID, m.Brand, m.BrandScore, m.SignalCount, m.Competitors, m.Mode, m.CreatedAt)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one stored report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid report ID: %s", args[0])
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		report, err := db.GetReport(id)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("report %d not found", id)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum reports to list")
	historyCmd.AddCommand(historyShowCmd)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		runner := orchestrate.New(cfg)
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(runner, db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func printReport(report *signal.Report) {
	fmt.Printf("=== %s ===\n", report.Brand)
	fmt.Printf("Brand score: %d  Sentiment: %d/100  Trend momentum: %.1f  Competitors: %d\n",
		report.KPIs.BrandScore, report.KPIs.SentimentScore,
		report.KPIs.TrendMomentum, report.KPIs.CompetitorsTracked)

	printList := func(header string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", header)
		for _, item := range items {
			fmt.Printf("  - %s\n", item)
		}
	}
	printList("Strengths", report.Strengths)
	printList("Gaps", report.Gaps)
	printList("Priorities", report.Priorities)

	if len(report.Signals) > 0 {
		fmt.Println("\nSignals:")
		for _, s := range report.Signals {
			who := ""
			if s.Competitor != "" {
				who = " vs " + s.Competitor
			}
			fmt.Printf("  [%3d] %s%s\n        %s\n", s.Score, s.Label, who, s.Note)
		}
	}

	if len(report.BrandTrends) > 0 {
		fmt.Println("\nBrand trends:")
		for i, term := range report.BrandTrends {
			if i >= 10 {
				break
			}
			fmt.Printf("  %s (%d)\n", term.Term, term.Count)
		}
	}

	if report.Sentiment.Brand.Summary != "" {
		fmt.Printf("\nSentiment summary: %s\n", report.Sentiment.Brand.Summary)
	}
	fmt.Printf("\nCompleted in %dms (%s mode, %d day window)\n",
		report.Summary.ElapsedMS, report.Summary.Mode, report.Summary.WindowDays)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "signalscale.db")
	return database.Open(dbPath)
}
