// Package cmd provides the CLI commands for contentkit.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rushteam/contentkit/service"
)

// globalOptions 是所有子命令共用的 flag。
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root command for the contentkit CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "contentkit",
		Short: "Hybrid content-based recommender",
		Long: `contentkit recommends catalog items for a free-text preference.

Item text (plain and structured columns) is vectorized with TF-IDF,
numeric attributes are scaled and appended, and items are ranked by
cosine similarity to the query. Shortfalls are filled by popularity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (YAML); CONTENTKIT_* env vars override it")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")

	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newReplCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// spaceFlags 是 recommend 与 inspect 共用的 catalog / 列配置 flag，显式设置时覆盖配置文件。
type spaceFlags struct {
	catalog       string
	idColumn      string
	displayColumn string
	popularity    string
	text          []string
	structured    []string
	numeric       []string
	vectorizer    string
	scaler        string
}

func (f *spaceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "Catalog file (.csv, .jsonl, .json)")
	cmd.Flags().StringVar(&f.idColumn, "id-column", "", "Identifier column (default: row number)")
	cmd.Flags().StringVar(&f.displayColumn, "display-column", "", "Column printed as the item title")
	cmd.Flags().StringVar(&f.popularity, "popularity-column", "", "Column used by the popularity fallback")
	cmd.Flags().StringSliceVar(&f.text, "text-columns", nil, "Free-text columns (comma separated)")
	cmd.Flags().StringSliceVar(&f.structured, "structured-columns", nil, "Structured list-of-record columns (comma separated)")
	cmd.Flags().StringSliceVar(&f.numeric, "numeric-columns", nil, "Numeric columns (comma separated)")
	cmd.Flags().StringVar(&f.vectorizer, "vectorizer", "", "Text vectorizer: tfidf, count")
	cmd.Flags().StringVar(&f.scaler, "scaler", "", "Numeric scaler: standard, minmax")
}

func (f *spaceFlags) apply(cmd *cobra.Command, cfg *service.Config) {
	changed := cmd.Flags().Changed
	if changed("catalog") {
		cfg.Catalog = f.catalog
	}
	if changed("id-column") {
		cfg.Space.IDColumn = f.idColumn
	}
	if changed("display-column") {
		cfg.Space.DisplayColumn = f.displayColumn
	}
	if changed("popularity-column") {
		cfg.Space.PopularityColumn = f.popularity
	}
	if changed("text-columns") {
		cfg.Space.TextColumns = f.text
	}
	if changed("structured-columns") {
		cfg.Space.StructuredColumns = f.structured
	}
	if changed("numeric-columns") {
		cfg.Space.NumericColumns = f.numeric
	}
	if changed("vectorizer") {
		cfg.Space.Vectorizer = f.vectorizer
	}
	if changed("scaler") {
		cfg.Space.Scaler = f.scaler
	}
}
