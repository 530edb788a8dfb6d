package metrics

import (
	"maps"
	"slices"
	"time"
)

const (
	DefaultWaitTimeBreach   = 30
	DefaultHandleTimeBreach = 20
)

// Thresholds configures breach detection. Values are whole minutes; a latency
// breaches only when it is strictly greater than its threshold.
type Thresholds struct {
	WaitTimeBreach    int
	HandleTimeBreach  int
	MessagingChannels []string
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WaitTimeBreach:    DefaultWaitTimeBreach,
		HandleTimeBreach:  DefaultHandleTimeBreach,
		MessagingChannels: slices.Clone(DefaultMessagingChannels),
	}
}

// SeedGroups returns a zero-valued accumulator for every group, restricted to
// targets when targets is non-empty.
func SeedGroups(groups []Group, targets []int64) map[int64]GroupMetric {
	var keep map[int64]struct{}
	if len(targets) > 0 {
		keep = make(map[int64]struct{}, len(targets))
		for _, id := range targets {
			keep[id] = struct{}{}
		}
	}

	seed := make(map[int64]GroupMetric, len(groups))
	for _, g := range groups {
		if keep != nil {
			if _, ok := keep[g.ID]; !ok {
				continue
			}
		}
		seed[g.ID] = GroupMetric{GroupID: g.ID, GroupName: g.Name}
	}
	return seed
}

// Aggregator folds tickets into a DashboardMetrics snapshot.
type Aggregator struct {
	thresholds Thresholds
	classifier ChannelClassifier
}

func NewAggregator(t Thresholds) *Aggregator {
	return &Aggregator{
		thresholds: t,
		classifier: NewChannelClassifier(t.MessagingChannels),
	}
}

// elapsedMinutes is the whole number of minutes between since and now,
// clamped at zero.
func elapsedMinutes(now, since time.Time) int {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// fold holds the accumulators owned by a single Aggregate call.
type fold struct {
	t      Thresholds
	groups map[int64]*GroupMetric
	out    DashboardMetrics
}

// Aggregate performs one pass over tickets. The seed map is not modified; the
// returned snapshot owns fresh copies of every accumulator, listed by group id.
// Tickets whose group is not in seed touch no counter.
func (a *Aggregator) Aggregate(seed map[int64]GroupMetric, tickets []Ticket, now time.Time) DashboardMetrics {
	f := &fold{
		t:      a.thresholds,
		groups: make(map[int64]*GroupMetric, len(seed)),
	}
	for id, g := range seed {
		f.groups[id] = &g
	}

	for seq, t := range tickets {
		g, ok := f.groups[t.GroupKey()]
		if !ok {
			continue
		}
		ch := a.classifier.Classify(t.Channel)

		switch t.Status {
		case StatusNew:
			f.onNew(g, t, seq, ch, elapsedMinutes(now, t.CreatedAt))
		case StatusOpen:
			f.onOpen(g, t, seq, ch, elapsedMinutes(now, t.UpdatedAt))
		case StatusPending:
			g.PendingCount++
		default:
		}
	}

	f.out.GeneratedAt = now
	f.out.Groups = make([]GroupMetric, 0, len(f.groups))
	for _, id := range slices.Sorted(maps.Keys(f.groups)) {
		f.out.Groups = append(f.out.Groups, *f.groups[id])
	}
	return f.out
}

func (f *fold) onNew(g *GroupMetric, t Ticket, seq int, ch Channel, wait int) {
	if ch == ChannelMessaging {
		g.NewMsgCount++
	} else {
		g.NewEmailCount++
	}
	f.out.TotalNew++

	if t.Assigned() {
		return
	}

	rec := LatencyRecord{Minutes: wait, TicketID: t.ID, Seq: seq}
	if wait > f.out.LongestWait.Minutes {
		f.out.LongestWait = rec
	}
	if wait > g.LongestWait.Minutes {
		g.LongestWait = rec
	}
	if ch == ChannelMessaging {
		g.LongestMsgWait = max(g.LongestMsgWait, wait)
	} else {
		g.LongestEmailWait = max(g.LongestEmailWait, wait)
	}

	if wait > f.t.WaitTimeBreach {
		g.WaitBreachCount++
		g.TotalBreachCount++
		f.out.BreachedWaitCount++
	}
}

func (f *fold) onOpen(g *GroupMetric, t Ticket, seq int, ch Channel, handle int) {
	if ch == ChannelMessaging {
		g.OpenMsgCount++
	} else {
		g.OpenEmailCount++
	}
	f.out.TotalOpen++

	rec := LatencyRecord{Minutes: handle, TicketID: t.ID, Seq: seq}
	if handle > f.out.LongestHandle.Minutes {
		f.out.LongestHandle = rec
	}
	if handle > g.LongestHandle.Minutes {
		g.LongestHandle = rec
	}
	if ch == ChannelMessaging {
		g.LongestMsgAHT = max(g.LongestMsgAHT, handle)
	} else {
		g.LongestEmailAHT = max(g.LongestEmailAHT, handle)
	}

	if handle > f.t.HandleTimeBreach {
		g.HandleBreachCount++
		g.TotalBreachCount++
		f.out.BreachedHandleCount++
	}
}
