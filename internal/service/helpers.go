package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

const defaultArchiveTTLSeconds int64 = 14 * 24 * 3600

// buildOrTsQuery turns free text into an OR-joined tsquery operand, so a
// document matching any term is returned and ts_rank favors documents
// matching more of them. Grounded on
// original_source/stompy_ticketing/service.py::_build_or_tsquery_param.
func buildOrTsQuery(query string) string {
	fields := strings.Fields(query)
	return strings.Join(fields, " | ")
}

// contentHash fingerprints a ticket's creation content for future
// deduplication tooling. Write-once: update never recomputes it.
// Grounded on original_source/stompy_ticketing/service.py::create_ticket.
func contentHash(title string, description *string) string {
	desc := ""
	if description != nil {
		desc = *description
	}
	sum := sha256.Sum256([]byte(title + "|" + desc))
	return hex.EncodeToString(sum[:])[:16]
}

// tagsEqual compares two tag sets for exact set equality (dedup,
// order-insensitive), matching spec.md's default tag-normalization
// answer: preserve as supplied, but treat the set as unordered for
// equality checks.
func tagsEqual(a, b []string) bool {
	return strings.Join(sortedSet(a), "\x00") == strings.Join(sortedSet(b), "\x00")
}

func sortedSet(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// tagsSupersetOf reports whether ticketTags contains every tag in
// filterTags, the array-contains filter semantic SPEC_FULL.md §9
// settles on for list's tags filter.
func tagsSupersetOf(ticketTags, filterTags []string) bool {
	have := map[string]bool{}
	for _, t := range ticketTags {
		have[t] = true
	}
	for _, want := range filterTags {
		if !have[want] {
			return false
		}
	}
	return true
}

// metadataEqual compares two metadata maps by their canonical JSON
// encoding, since map key order is not meaningful.
func metadataEqual(a, b map[string]any) bool {
	aj, _ := json.Marshal(normalizeMap(a))
	bj, _ := json.Marshal(normalizeMap(b))
	return string(aj) == string(bj)
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func encodeStringSlice(v []string) *string {
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}

func encodeMap(v map[string]any) *string {
	b, _ := json.Marshal(normalizeMap(v))
	s := string(b)
	return &s
}

func toStringSlice(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func toStringMap(raw any) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	return m, ok
}

func toOptionalString(raw any) (*string, bool) {
	if raw == nil {
		return nil, true
	}
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	return &s, true
}

// clampLimit enforces list/search's "cap at N, default to D" rule.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// archiveCutoff is the closed_at boundary below which a
// terminal ticket becomes eligible for archival.
func archiveCutoff(now, ttlSeconds int64) int64 {
	if ttlSeconds <= 0 {
		ttlSeconds = defaultArchiveTTLSeconds
	}
	return now - ttlSeconds
}

