package metrics

import "slices"

// Project derives a snapshot restricted to the selected groups from the
// finalized per-group accumulators of base. It never looks at tickets.
//
// Longest wait/handle attribution is recomputed within the selection: the
// record kept is the selected group record with the most minutes, ties going
// to the ticket seen first in the fold. Over the full group set this equals
// the base record exactly. An empty selection returns a copy of base.
func Project(base DashboardMetrics, selected []int64) DashboardMetrics {
	if len(selected) == 0 {
		out := base
		out.Groups = slices.Clone(base.Groups)
		return out
	}

	keep := make(map[int64]struct{}, len(selected))
	for _, id := range selected {
		keep[id] = struct{}{}
	}

	out := DashboardMetrics{
		Groups:      make([]GroupMetric, 0, len(selected)),
		IsCapped:    base.IsCapped,
		IsPartial:   base.IsPartial,
		Agents:      base.Agents,
		GeneratedAt: base.GeneratedAt,
	}
	for _, g := range base.Groups {
		if _, ok := keep[g.GroupID]; !ok {
			continue
		}
		out.Groups = append(out.Groups, g)

		out.TotalNew += g.NewEmailCount + g.NewMsgCount
		out.TotalOpen += g.OpenEmailCount + g.OpenMsgCount
		out.BreachedWaitCount += g.WaitBreachCount
		out.BreachedHandleCount += g.HandleBreachCount

		wait := g.LongestWait
		wait.Minutes = g.MaxWait()
		if wait.beats(out.LongestWait) {
			out.LongestWait = wait
		}
		handle := g.LongestHandle
		handle.Minutes = g.MaxHandle()
		if handle.beats(out.LongestHandle) {
			out.LongestHandle = handle
		}
	}
	return out
}
