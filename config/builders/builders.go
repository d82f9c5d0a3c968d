package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/contentkit/config"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/pkg/conv"
	"github.com/rushteam/contentkit/recall"
	"github.com/rushteam/contentkit/rerank"
)

func init() {
	config.Register("recall.content", BuildContentNode)
	config.Register("recall.hot", BuildHotNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.backfill", BuildBackfillNode)
}

func BuildContentNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	minSim := conv.ConfigGetFloat64(cfg, "min_similarity", 0)
	if minSim < 0 || minSim > 1 {
		return nil, fmt.Errorf("min_similarity must be in [0, 1], got %v", minSim)
	}
	return &recall.Content{MinSimilarity: minSim}, nil
}

func BuildHotNode(map[string]any, pipeline.Deps) (pipeline.Node, error) {
	return &recall.Hot{}, nil
}

func BuildFilterNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	filters, err := BuildFilters(conv.ConfigGetMaps(cfg, "filters"), deps)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildTopNNode(cfg map[string]any, _ pipeline.Deps) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildBackfillNode(cfg map[string]any, deps pipeline.Deps) (pipeline.Node, error) {
	var src recall.Source
	switch conv.ConfigGet(cfg, "source", "hot") {
	case "hot", "":
		src = &recall.Hot{}
	default:
		return nil, fmt.Errorf("unknown backfill source: %v", cfg["source"])
	}
	filters, err := BuildFilters(conv.ConfigGetMaps(cfg, "filters"), deps)
	if err != nil {
		return nil, err
	}
	return &rerank.Backfill{
		Source:  src,
		Filters: filters,
		N:       int(conv.ConfigGetInt64(cfg, "n", 0)),
	}, nil
}

// BuildFilters 根据配置列表构建过滤器，filter 与 rerank.backfill 共用。
// 配置示例：
//
//	filters:
//	  - type: exclude
//	  - type: blacklist
//	    item_ids: ["m1", "m2"]
//	  - type: exposed
//	    window: 720h
//	  - type: expr
//	    expr: 'item.score > 0.1'
func BuildFilters(specs []map[string]any, deps pipeline.Deps) ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(specs))
	for _, fc := range specs {
		filterType := conv.ConfigGet(fc, "type", "")
		switch filterType {
		case "exclude":
			filters = append(filters, filter.NewExcludeFilter())

		case "blacklist":
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToString(fc["item_ids"])))

		case "exposed":
			var window time.Duration
			if s := conv.ConfigGet(fc, "window", ""); s != "" {
				d, err := time.ParseDuration(s)
				if err != nil {
					return nil, fmt.Errorf("exposed window: %w", err)
				}
				window = d
			}
			filters = append(filters, filter.NewExposedFilter(deps.History, window))

		case "expr":
			expr := conv.ConfigGet(fc, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter requires expr")
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return filters, nil
}
