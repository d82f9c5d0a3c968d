package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/contentkit/service"
)

// recommendOptions holds CLI flags for recommend.
type recommendOptions struct {
	space         spaceFlags
	numeric       []string // key=value
	topK          int
	minSimilarity float64
	exclude       []string
	user          string
	redis         string
	pipeline      string
	format        string
}

func newRecommendCmd(global *globalOptions) *cobra.Command {
	var opts recommendOptions

	cmd := &cobra.Command{
		Use:   "recommend <preference text>",
		Short: "Recommend catalog items for a free-text preference",
		Long: `Recommend catalog items for a free-text preference.

Examples:
  contentkit recommend --catalog movies.csv --text-columns overview \
      --structured-columns genres,keywords --display-column title \
      "space adventure with robots"
  contentkit recommend -c contentkit.yaml --numeric runtime=120 --top-k 5 "heist"
  contentkit recommend -c contentkit.yaml --user u1 --redis localhost:6379 "romance"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, global, strings.Join(args, " "), opts)
		},
	}

	opts.space.register(cmd)
	cmd.Flags().StringSliceVar(&opts.numeric, "numeric", nil, "Numeric preferences as column=value (repeatable)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of results (default from config)")
	cmd.Flags().Float64Var(&opts.minSimilarity, "min-similarity", 0, "Drop content matches below this similarity")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Item identifiers to exclude (comma separated)")
	cmd.Flags().StringVar(&opts.user, "user", "", "User identifier for seen-history exclusion")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for seen history; results are recorded as seen")
	cmd.Flags().StringVar(&opts.pipeline, "pipeline", "", "Pipeline config file (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runRecommend(cmd *cobra.Command, global *globalOptions, text string, opts recommendOptions) error {
	cfg, err := service.LoadConfig(global.configPath)
	if err != nil {
		return err
	}
	opts.space.apply(cmd, cfg)
	if cmd.Flags().Changed("min-similarity") {
		cfg.Rank.MinSimilarity = opts.minSimilarity
	}
	if opts.pipeline != "" {
		cfg.Rank.Pipeline = opts.pipeline
	}
	if opts.redis != "" {
		cfg.History.Backend = service.HistoryRedis
		cfg.History.RedisAddr = opts.redis
		cfg.History.MarkSeen = true
	}
	numeric, err := parseNumeric(opts.numeric)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, err := service.NewFromConfig(ctx, cfg, service.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer rec.Close()

	resp, err := rec.Recommend(ctx, service.Request{
		UserID:  opts.user,
		Text:    text,
		Numeric: numeric,
		TopK:    opts.topK,
		Exclude: opts.exclude,
	})
	if err != nil {
		return err
	}
	return writeResponse(cmd.OutOrStdout(), opts.format, resp)
}

// parseNumeric 解析 column=value 形式的数值偏好。
func parseNumeric(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --numeric %q, want column=value", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --numeric %q: %w", p, err)
		}
		out[name] = v
	}
	return out, nil
}

func writeResponse(w io.Writer, format string, resp *service.Response) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "text", "":
		if len(resp.Results) == 0 {
			_, err := fmt.Fprintln(w, "No recommendations.")
			return err
		}
		for i, r := range resp.Results {
			if _, err := fmt.Fprintf(w, "%2d. %s  [%s]  %.4f  %s\n", i+1, r.Title, r.ID, r.Score, r.Source); err != nil {
				return err
			}
		}
		if len(resp.Degraded) > 0 {
			_, err := fmt.Fprintf(w, "warning: skipped failing filters: %s\n", strings.Join(resp.Degraded, ", "))
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
