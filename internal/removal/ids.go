package removal

import (
	"strconv"
	"strings"
)

// FilterIDs keeps positive ids in first-occurrence order, dropping zero,
// negative and duplicate values.
func FilterIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ParseIDs converts raw form or argument values to filtered ids.
// Non-numeric values are discarded.
func ParseIDs(raw []string) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return FilterIDs(ids)
}
