package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/contentkit/feature"
	"github.com/rushteam/contentkit/service"
)

type inspectOptions struct {
	space  spaceFlags
	terms  int
	format string
}

// spaceSummary 是 inspect 的输出。
type spaceSummary struct {
	Version     string                                `json:"version"`
	Items       int                                   `json:"items"`
	Vectorizer  string                                `json:"vectorizer"`
	Vocabulary  int                                   `json:"vocabulary"`
	Numeric     []string                              `json:"numeric_columns"`
	Scaler      string                                `json:"scaler,omitempty"`
	Dimensions  int                                   `json:"dimensions"`
	NumericStat map[string]*feature.FeatureStatistics `json:"numeric_stats,omitempty"`
	CommonTerms []termWeight                          `json:"common_terms,omitempty"`
}

type termWeight struct {
	Term string  `json:"term"`
	IDF  float64 `json:"idf"`
}

func newInspectCmd(global *globalOptions) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Build the vector space and print its layout",
		Long: `Build the vector space for a catalog and print its layout:
item count, vocabulary size, numeric columns with their statistics
and the total number of feature columns.

Examples:
  contentkit inspect --catalog movies.csv --text-columns overview --numeric-columns runtime
  contentkit inspect -c contentkit.yaml --terms 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, global, opts)
		},
	}

	opts.space.register(cmd)
	cmd.Flags().IntVar(&opts.terms, "terms", 0, "Print the N most common vocabulary terms (tfidf only)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runInspect(cmd *cobra.Command, global *globalOptions, opts inspectOptions) error {
	cfg, err := service.LoadConfig(global.configPath)
	if err != nil {
		return err
	}
	opts.space.apply(cmd, cfg)
	cfg.History.Backend = service.HistoryNone

	rec, err := service.NewFromConfig(cmd.Context(), cfg, service.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer rec.Close()

	summary := summarize(rec.Snapshot(), opts.terms)
	return writeSummary(cmd.OutOrStdout(), opts.format, summary)
}

func summarize(snap *service.Snapshot, terms int) spaceSummary {
	space := snap.Space
	s := spaceSummary{
		Version:     snap.Version,
		Items:       space.Len(),
		Vectorizer:  string(space.Vectorizer().Kind()),
		Vocabulary:  space.TextDim(),
		Numeric:     space.NumericColumns(),
		Dimensions:  space.Dim(),
		NumericStat: space.NumericStats(),
	}
	if sc := space.Scaler(); sc != nil {
		s.Scaler = string(sc.Kind())
	}
	if tv, ok := space.Vectorizer().(*feature.TfidfVectorizer); ok && terms > 0 {
		s.CommonTerms = commonTerms(tv, terms)
	}
	return s
}

// commonTerms 返回 idf 最低（出现在最多文档中）的 n 个词，idf 相同按字典序。
func commonTerms(tv *feature.TfidfVectorizer, n int) []termWeight {
	all := make([]termWeight, 0, tv.Dim())
	for _, t := range tv.Terms() {
		idf, _ := tv.IDF(t)
		all = append(all, termWeight{Term: t, IDF: idf})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].IDF < all[j].IDF })
	return all[:min(n, len(all))]
}

func writeSummary(w io.Writer, format string, s spaceSummary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "version:     %s\n", s.Version)
	fmt.Fprintf(w, "items:       %d\n", s.Items)
	fmt.Fprintf(w, "vectorizer:  %s (%d terms)\n", s.Vectorizer, s.Vocabulary)
	if len(s.Numeric) > 0 {
		fmt.Fprintf(w, "scaler:      %s (%d columns)\n", s.Scaler, len(s.Numeric))
	}
	fmt.Fprintf(w, "dimensions:  %d\n", s.Dimensions)

	for _, name := range s.Numeric {
		st := s.NumericStat[name]
		if st == nil {
			continue
		}
		fmt.Fprintf(w, "  %-16s mean=%.4g std=%.4g min=%.4g max=%.4g median=%.4g\n",
			name, st.Mean, st.Std, st.Min, st.Max, st.Median)
	}
	if len(s.CommonTerms) > 0 {
		fmt.Fprintln(w, "common terms:")
		for _, tw := range s.CommonTerms {
			fmt.Fprintf(w, "  %-16s idf=%.4f\n", tw.Term, tw.IDF)
		}
	}
	return nil
}
