// Package catalog normalizes raw tool descriptions discovered from the
// Composio platform into one canonical record shape.
//
// Responses differ sharply between platform generations: the v3 client
// returns typed objects that can dump themselves to a map, the legacy
// client returns loosely-keyed maps, and the raw HTTP fallback returns
// whatever the endpoint serialized. Normalize accepts all of them.
package catalog

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Record is the canonical description of one discovered remote tool.
type Record struct {
	Toolkit     string         `json:"toolkit"`
	ID          string         `json:"id,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	Name        string         `json:"name,omitempty"`
	InputSchema map[string]any `json:"input_parameters,omitempty"`
}

// Key returns the dedup identity of the record: the lowercased slug,
// falling back to id, then name.
func (r Record) Key() string {
	switch {
	case r.Slug != "":
		return strings.ToLower(r.Slug)
	case r.ID != "":
		return strings.ToLower(r.ID)
	default:
		return strings.ToLower(r.Name)
	}
}

// Dumper is implemented by client response items that can serialize
// themselves to a generic mapping (the v3 SDK "model dump" concept).
type Dumper interface {
	AsMap() map[string]any
}

// Normalizer converts raw discovery items into Records.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer returns a Normalizer that reports dropped items to log.
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize converts one raw item of unknown shape into a Record.
// It returns nil when no usable slug or name can be derived; the raw key
// set is logged so the unrecognized shape can be diagnosed.
func (n *Normalizer) Normalize(toolkit string, item any) *Record {
	source := itemToMap(item)
	if source == nil {
		return nil
	}

	rec := &Record{
		Toolkit: toolkit,
		ID:      firstString(source, "id", "slug", "tool_slug"),
		Slug:    firstString(source, "slug", "tool_slug"),
		Name:    firstString(source, "name", "display_name", "id"),
	}

	// A nested toolkit sub-object may carry the authoritative slug; the
	// item's own slug fields win when present.
	if rec.Slug == "" {
		if tk, ok := source["toolkit"].(map[string]any); ok {
			rec.Slug = stringValue(tk["slug"])
		}
	}
	if rec.Name == "" {
		rec.Name = rec.ID
	}

	if schema, ok := source["input_parameters"].(map[string]any); ok {
		rec.InputSchema = schema
	} else if schema, ok := source["input_schema"].(map[string]any); ok {
		rec.InputSchema = schema
	}

	if rec.Slug == "" && rec.Name == "" {
		n.log.Info().
			Str("toolkit", toolkit).
			Strs("keys", sortedKeys(source)).
			Msg("unable to derive slug/name for tool; dropping")
		return nil
	}
	return rec
}

// NormalizeAll normalizes a batch of raw items, dropping unusable ones.
func (n *Normalizer) NormalizeAll(toolkit string, items []any) []Record {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if rec := n.Normalize(toolkit, item); rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

// Dedup removes records sharing an identity key, keeping the first
// occurrence. Items discovered under two toolkits are kept once, under
// the toolkit that surfaced them first.
func Dedup(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// itemToMap reduces a raw item to a generic mapping. Items that can dump
// themselves win, then plain maps; anything else goes through the fixed
// field-set extraction in fieldsToMap.
func itemToMap(item any) map[string]any {
	switch v := item.(type) {
	case nil:
		return nil
	case Dumper:
		return v.AsMap()
	case map[string]any:
		return v
	default:
		return fieldsToMap(item)
	}
}

func firstString(source map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(source[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
