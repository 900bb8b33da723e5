package engine

import (
	"github.com/httptim/rednet-core/internal/search/index"
)

// Config bounds engine defaults (spec.md §6).
type Config struct {
	MaxResultsPerQuery int
	CacheTTLSeconds    int
}

// Engine ties the query parser, scorer, and result cache to one index.
type Engine struct {
	ix    *index.Index
	cfg   Config
	cache *ResultCache
}

// New creates a search engine over ix.
func New(ix *index.Index, cfg Config, cache *ResultCache) *Engine {
	if cfg.MaxResultsPerQuery <= 0 {
		cfg.MaxResultsPerQuery = 100
	}
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = 300
	}
	return &Engine{ix: ix, cfg: cfg, cache: cache}
}

// Search parses queryText, scores and filters matches, paginates, and
// serves/populates the result cache.
func (e *Engine) Search(queryText, category, sortOrder string, limit, offset int) (ResultSet, error) {
	if limit <= 0 || limit > e.cfg.MaxResultsPerQuery {
		limit = e.cfg.MaxResultsPerQuery
	}
	q := Query{Text: queryText, Category: category, Sort: sortOrder, Limit: limit, Offset: offset}

	if e.cache != nil {
		if cached, ok := e.cache.Get(q); ok {
			return paginate(cached, offset, limit), nil
		}
	}

	node, err := Parse(queryText)
	if err != nil {
		return ResultSet{}, err
	}
	results := Score(node, e.ix)

	full := ResultSet{Results: results, Total: len(results)}
	if e.cache != nil {
		e.cache.Set(q, full, e.cfg.CacheTTLSeconds)
	}
	return paginate(full, offset, limit), nil
}

func paginate(rs ResultSet, offset, limit int) ResultSet {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs.Results) {
		return ResultSet{Results: nil, Total: rs.Total}
	}
	end := offset + limit
	if end > len(rs.Results) {
		end = len(rs.Results)
	}
	return ResultSet{Results: rs.Results[offset:end], Total: rs.Total}
}

// GetSuggestions returns indexed terms whose prefix matches partial,
// ranked by descending document frequency (spec.md §4.11).
func (e *Engine) GetSuggestions(partial string, limit int) []string {
	return e.ix.TermsWithPrefix(partial, limit)
}
