package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Catalog is a resolved, deduplicated set of tool records with lookup
// helpers for the workflow layer.
type Catalog struct {
	records []Record
}

// New wraps a record list in a Catalog. The slice is not copied; callers
// hand over ownership.
func New(records []Record) *Catalog {
	return &Catalog{records: records}
}

// Records returns the underlying record list.
func (c *Catalog) Records() []Record {
	return c.records
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// FindTool returns the slug (or id) of the first tool in the given toolkit
// whose slug contains keyword. Empty string when nothing matches.
func (c *Catalog) FindTool(toolkit, keyword string) string {
	keyword = strings.ToLower(keyword)
	for _, rec := range c.records {
		if rec.Toolkit != toolkit {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Slug), keyword) {
			if rec.Slug != "" {
				return rec.Slug
			}
			return rec.ID
		}
	}
	return ""
}

// Get returns the record whose identity key matches slug, if any.
func (c *Catalog) Get(slug string) (Record, bool) {
	key := strings.ToLower(slug)
	for _, rec := range c.records {
		if rec.Key() == key {
			return rec, true
		}
	}
	return Record{}, false
}

// Search ranks records against a free-form query. Exact substring hits on
// the slug outrank fuzzy hits, which outrank name hits; ties keep catalog
// order.
func (c *Catalog) Search(query string, limit int) []Record {
	if limit <= 0 {
		limit = 10
	}
	query = strings.ToLower(query)

	type scored struct {
		rec   Record
		score int
		pos   int
	}
	var ranked []scored

	for i, rec := range c.records {
		slug := strings.ToLower(rec.Slug)
		name := strings.ToLower(rec.Name)

		score := 0
		if strings.Contains(slug, query) {
			score += 100
		}
		if fuzzy.Match(query, slug) {
			score += 50
		}
		if strings.Contains(name, query) {
			score += 30
		}
		if score > 0 {
			ranked = append(ranked, scored{rec: rec, score: score, pos: i})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Record, len(ranked))
	for i, s := range ranked {
		out[i] = s.rec
	}
	return out
}
