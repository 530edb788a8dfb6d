package metrics

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig selects an explicit column ordering. A nil config, or one naming
// an unknown column, uses the default ordering.
type SortConfig struct {
	Column    string
	Direction SortDirection
}

// ParseSortDirection accepts "asc" and "desc" in any case; anything else is asc.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(s, string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

const ColumnName = "group_name"

var numericColumns = map[string]func(GroupMetric) int{
	"group_id":            func(g GroupMetric) int { return int(g.GroupID) },
	"longest_email_wait":  func(g GroupMetric) int { return g.LongestEmailWait },
	"longest_msg_wait":    func(g GroupMetric) int { return g.LongestMsgWait },
	"longest_email_aht":   func(g GroupMetric) int { return g.LongestEmailAHT },
	"longest_msg_aht":     func(g GroupMetric) int { return g.LongestMsgAHT },
	"new_email_count":     func(g GroupMetric) int { return g.NewEmailCount },
	"new_msg_count":       func(g GroupMetric) int { return g.NewMsgCount },
	"open_email_count":    func(g GroupMetric) int { return g.OpenEmailCount },
	"open_msg_count":      func(g GroupMetric) int { return g.OpenMsgCount },
	"pending_count":       func(g GroupMetric) int { return g.PendingCount },
	"wait_breach_count":   func(g GroupMetric) int { return g.WaitBreachCount },
	"handle_breach_count": func(g GroupMetric) int { return g.HandleBreachCount },
	"total_breach_count":  func(g GroupMetric) int { return g.TotalBreachCount },
}

// IsSortColumn reports whether column can be used in a SortConfig.
func IsSortColumn(column string) bool {
	if column == ColumnName {
		return true
	}
	_, ok := numericColumns[column]
	return ok
}

// Sorter orders group lists for presentation. It is safe for concurrent use.
type Sorter struct {
	locale language.Tag
}

func NewSorter(locale language.Tag) *Sorter {
	return &Sorter{locale: locale}
}

var defaultSorter = NewSorter(language.English)

// Sort orders groups with the English collation. See Sorter.Sort.
func Sort(groups []GroupMetric, cfg *SortConfig) []GroupMetric {
	return defaultSorter.Sort(groups, cfg)
}

// Sort returns a sorted copy of groups; the input is not modified. The sort is
// stable. Without an explicit column groups are ordered by total breaches,
// then by their worst wait or handle time, both descending.
func (s *Sorter) Sort(groups []GroupMetric, cfg *SortConfig) []GroupMetric {
	out := slices.Clone(groups)

	var compare func(a, b GroupMetric) int
	switch {
	case cfg == nil || !IsSortColumn(cfg.Column):
		compare = defaultOrder
	case cfg.Column == ColumnName:
		// collate.Collator keeps internal buffers, so one per call.
		col := collate.New(s.locale)
		compare = func(a, b GroupMetric) int { return col.CompareString(a.GroupName, b.GroupName) }
	default:
		key := numericColumns[cfg.Column]
		compare = func(a, b GroupMetric) int { return cmp.Compare(key(a), key(b)) }
	}

	if cfg != nil && IsSortColumn(cfg.Column) && cfg.Direction == SortDesc {
		asc := compare
		compare = func(a, b GroupMetric) int { return -asc(a, b) }
	}

	slices.SortStableFunc(out, compare)
	return out
}

func defaultOrder(a, b GroupMetric) int {
	if c := cmp.Compare(b.TotalBreachCount, a.TotalBreachCount); c != 0 {
		return c
	}
	return cmp.Compare(max(b.MaxWait(), b.MaxHandle()), max(a.MaxWait(), a.MaxHandle()))
}
