package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"typed-kv-service/internal/store"
)

// SortLimit selects a window of the sorted result. A negative Count means
// everything after Offset.
type SortLimit struct {
	Offset int
	Count  int
}

// SortOptions mirror SORT's ALPHA, DESC and LIMIT modifiers.
type SortOptions struct {
	Alpha bool
	Desc  bool
	Limit *SortLimit
}

type sortItem struct {
	value string
	score float64
}

// Sort returns the elements of the list at key in order, leaving the list
// untouched. Elements are compared as numbers unless Alpha is set; equal
// numbers fall back to byte order so the result is deterministic.
func (e *Engine) Sort(key string, opts SortOptions) ([]string, error) {
	var items []string
	_, err := e.store.Read(key, store.KindList, func(ent *store.Entry) {
		items = append([]string(nil), listOf(ent).Items...)
	})
	if err != nil {
		return nil, err
	}

	sorted := make([]sortItem, len(items))
	for i, v := range items {
		sorted[i].value = v
		if opts.Alpha {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return nil, ErrNotSortable
		}
		sorted[i].score = f
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := compareItems(sorted[i], sorted[j], opts.Alpha)
		if opts.Desc {
			return cmp > 0
		}
		return cmp < 0
	})

	out := make([]string, 0, len(sorted))
	for _, it := range window(sorted, opts.Limit) {
		out = append(out, it.value)
	}
	return out, nil
}

func compareItems(a, b sortItem, alpha bool) int {
	if !alpha {
		switch {
		case a.score < b.score:
			return -1
		case a.score > b.score:
			return 1
		}
	}
	return strings.Compare(a.value, b.value)
}

func window(items []sortItem, limit *SortLimit) []sortItem {
	if limit == nil {
		return items
	}
	start := limit.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if limit.Count >= 0 && limit.Count < end-start {
		end = start + limit.Count
	}
	return items[start:end]
}
