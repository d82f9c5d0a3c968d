package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rushteam/contentkit/service"
)

type replOptions struct {
	space    spaceFlags
	numeric  []string
	topK     int
	user     string
	format   string
	watch    bool
	debounce time.Duration
}

func newReplCmd(global *globalOptions) *cobra.Command {
	var opts replOptions

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Answer preference queries read line by line from stdin",
		Long: `Build the vector space once and answer one query per input line.

With --watch the catalog file is watched and the vector space is rebuilt
whenever it changes; queries keep using the previous snapshot until the
rebuild succeeds.

Examples:
  contentkit repl -c contentkit.yaml --watch
  printf 'space\nromance\n' | contentkit repl --catalog movies.csv --text-columns overview`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, global, opts)
		},
	}

	opts.space.register(cmd)
	cmd.Flags().StringSliceVar(&opts.numeric, "numeric", nil, "Numeric preferences applied to every query, as column=value")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of results (default from config)")
	cmd.Flags().StringVar(&opts.user, "user", "", "User identifier for seen-history exclusion")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild when the catalog file changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", service.DefaultWatchDebounce, "Quiet period before a rebuild")

	return cmd
}

func runRepl(cmd *cobra.Command, global *globalOptions, opts replOptions) error {
	cfg, err := service.LoadConfig(global.configPath)
	if err != nil {
		return err
	}
	opts.space.apply(cmd, cfg)
	numeric, err := parseNumeric(opts.numeric)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rec, err := service.NewFromConfig(ctx, cfg, service.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer rec.Close()

	if opts.watch {
		go func() {
			if err := rec.WatchCatalog(ctx, cfg.Catalog, opts.debounce); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("catalog watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		resp, err := rec.Recommend(ctx, service.Request{
			UserID:  opts.user,
			Text:    text,
			Numeric: numeric,
			TopK:    opts.topK,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		if opts.format != "json" {
			fmt.Fprintf(out, "> %s\n", text)
		}
		if err := writeResponse(out, opts.format, resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
