package metrics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func id(v int64) *int64 { return &v }

func minutesAgo(m int) time.Time {
	return testNow.Add(-time.Duration(m) * time.Minute)
}

func seedOf(ids ...int64) map[int64]GroupMetric {
	groups := make([]Group, 0, len(ids))
	for _, gid := range ids {
		groups = append(groups, Group{ID: gid, Name: "Group"})
	}
	return SeedGroups(groups, nil)
}

func groupByID(t *testing.T, m DashboardMetrics, gid int64) GroupMetric {
	t.Helper()
	for _, g := range m.Groups {
		if g.GroupID == gid {
			return g
		}
	}
	t.Fatalf("group %d not in result", gid)
	return GroupMetric{}
}

func TestSeedGroups(t *testing.T) {
	groups := []Group{{ID: 1, Name: "Billing"}, {ID: 2, Name: "Tier 1"}, {ID: 3, Name: "VIP"}}

	t.Run("all groups", func(t *testing.T) {
		seed := SeedGroups(groups, nil)
		assert.Len(t, seed, 3)
		assert.Equal(t, GroupMetric{GroupID: 2, GroupName: "Tier 1"}, seed[2])
	})

	t.Run("restricted to targets", func(t *testing.T) {
		seed := SeedGroups(groups, []int64{3, 99})
		assert.Len(t, seed, 1)
		assert.Contains(t, seed, int64(3))
	})
}

func TestAggregate_NewUnassignedMessagingBreach(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 100, Status: StatusNew, GroupID: id(5), CreatedAt: minutesAgo(31), UpdatedAt: minutesAgo(31), Channel: "chat"},
	}

	m := agg.Aggregate(seedOf(5), tickets, testNow)

	g := groupByID(t, m, 5)
	assert.Equal(t, 1, g.NewMsgCount)
	assert.Equal(t, 31, g.LongestMsgWait)
	assert.Equal(t, 1, g.WaitBreachCount)
	assert.Equal(t, 1, g.TotalBreachCount)
	assert.Equal(t, 1, m.BreachedWaitCount)
	assert.Equal(t, LatencyRecord{Minutes: 31, TicketID: 100, Seq: 0}, m.LongestWait)
	assert.Equal(t, testNow, m.GeneratedAt)
}

func TestAggregate_OpenEmailHandleBreach(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusOpen, GroupID: id(7), CreatedAt: minutesAgo(90), UpdatedAt: minutesAgo(10), Channel: "email"},
		{ID: 2, Status: StatusOpen, GroupID: id(7), CreatedAt: minutesAgo(90), UpdatedAt: minutesAgo(25), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(7), tickets, testNow)

	g := groupByID(t, m, 7)
	assert.Equal(t, 25, g.LongestEmailAHT)
	assert.Equal(t, 1, g.HandleBreachCount)
	assert.Equal(t, 2, g.OpenEmailCount)
	assert.Equal(t, 2, m.TotalOpen)
	assert.Equal(t, int64(2), m.LongestHandle.TicketID)
}

func TestAggregate_UnknownGroupIsDropped(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusNew, GroupID: id(404), CreatedAt: minutesAgo(300), Channel: "chat"},
		{ID: 2, Status: StatusOpen, GroupID: id(404), UpdatedAt: minutesAgo(300), Channel: "email"},
		{ID: 3, Status: StatusPending, CreatedAt: minutesAgo(300), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	assert.Equal(t, 0, m.TotalNew)
	assert.Equal(t, 0, m.TotalOpen)
	assert.Equal(t, 0, m.BreachedWaitCount)
	assert.Equal(t, 0, m.BreachedHandleCount)
	assert.Equal(t, LatencyRecord{}, m.LongestWait)
	assert.Equal(t, LatencyRecord{}, m.LongestHandle)
	assert.Equal(t, GroupMetric{GroupID: 1, GroupName: "Group"}, groupByID(t, m, 1))
}

func TestAggregate_BreachThresholdIsStrict(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusNew, GroupID: id(1), CreatedAt: minutesAgo(30), Channel: "email"},
		{ID: 2, Status: StatusOpen, GroupID: id(1), UpdatedAt: minutesAgo(20), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	assert.Equal(t, 0, m.BreachedWaitCount)
	assert.Equal(t, 0, m.BreachedHandleCount)
	assert.Equal(t, 30, m.LongestWait.Minutes)
	assert.Equal(t, 20, m.LongestHandle.Minutes)
}

func TestAggregate_CustomThresholds(t *testing.T) {
	agg := NewAggregator(Thresholds{WaitTimeBreach: 5, HandleTimeBreach: 60, MessagingChannels: []string{"carrier_pigeon"}})
	tickets := []Ticket{
		{ID: 1, Status: StatusNew, GroupID: id(1), CreatedAt: minutesAgo(6), Channel: "carrier_pigeon"},
		{ID: 2, Status: StatusOpen, GroupID: id(1), UpdatedAt: minutesAgo(45), Channel: "chat"},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	g := groupByID(t, m, 1)
	assert.Equal(t, 1, g.NewMsgCount)
	assert.Equal(t, 1, g.OpenEmailCount)
	assert.Equal(t, 1, m.BreachedWaitCount)
	assert.Equal(t, 0, m.BreachedHandleCount)
}

func TestAggregate_AssignedNewCountsButDoesNotWait(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusNew, GroupID: id(1), AssigneeID: id(42), CreatedAt: minutesAgo(120), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	g := groupByID(t, m, 1)
	assert.Equal(t, 1, g.NewEmailCount)
	assert.Equal(t, 1, m.TotalNew)
	assert.Equal(t, 0, g.LongestEmailWait)
	assert.Equal(t, 0, g.WaitBreachCount)
	assert.Equal(t, LatencyRecord{}, m.LongestWait)
}

func TestAggregate_TiesKeepFirstTicket(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 10, Status: StatusOpen, GroupID: id(1), UpdatedAt: minutesAgo(15), Channel: "email"},
		{ID: 11, Status: StatusOpen, GroupID: id(2), UpdatedAt: minutesAgo(15), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(1, 2), tickets, testNow)

	assert.Equal(t, int64(10), m.LongestHandle.TicketID)
	assert.Equal(t, int64(11), groupByID(t, m, 2).LongestHandle.TicketID)
}

func TestAggregate_PendingAndOtherStatuses(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusPending, GroupID: id(1), CreatedAt: minutesAgo(500), UpdatedAt: minutesAgo(500)},
		{ID: 2, Status: StatusHold, GroupID: id(1), CreatedAt: minutesAgo(500), UpdatedAt: minutesAgo(500)},
		{ID: 3, Status: StatusSolved, GroupID: id(1), CreatedAt: minutesAgo(500), UpdatedAt: minutesAgo(500)},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	g := groupByID(t, m, 1)
	assert.Equal(t, 1, g.PendingCount)
	assert.Equal(t, 0, g.TotalBreachCount)
	assert.Equal(t, LatencyRecord{}, m.LongestHandle)
}

func TestAggregate_FutureTimestampsClampToZero(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	tickets := []Ticket{
		{ID: 1, Status: StatusOpen, GroupID: id(1), UpdatedAt: testNow.Add(time.Hour), Channel: "email"},
	}

	m := agg.Aggregate(seedOf(1), tickets, testNow)

	assert.Equal(t, 0, m.LongestHandle.Minutes)
	assert.Equal(t, int64(0), m.LongestHandle.TicketID)
}

func TestAggregate_DoesNotMutateSeed(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	seed := seedOf(1)
	tickets := []Ticket{{ID: 1, Status: StatusPending, GroupID: id(1)}}

	_ = agg.Aggregate(seed, tickets, testNow)

	assert.Equal(t, 0, seed[1].PendingCount)
}

func randomTickets(r *rand.Rand, n int) []Ticket {
	statuses := []Status{StatusNew, StatusOpen, StatusPending, StatusHold, StatusSolved}
	channels := []string{"chat", "email", "web", "whatsapp", "", "api"}
	out := make([]Ticket, n)
	for i := range out {
		t := Ticket{
			ID:        int64(i + 1),
			Status:    statuses[r.Intn(len(statuses))],
			CreatedAt: minutesAgo(r.Intn(120)),
			UpdatedAt: minutesAgo(r.Intn(60)),
			Channel:   channels[r.Intn(len(channels))],
		}
		if gid := int64(r.Intn(6)); gid != 0 {
			t.GroupID = id(gid)
		}
		if r.Intn(2) == 0 {
			t.AssigneeID = id(int64(r.Intn(10) + 1))
		}
		out[i] = t
	}
	return out
}

func TestAggregate_TotalsMatchGroupSums(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		m := agg.Aggregate(seedOf(1, 2, 3, 4), randomTickets(r, 200), testNow)

		var newSum, openSum, waitSum, handleSum int
		for _, g := range m.Groups {
			newSum += g.NewEmailCount + g.NewMsgCount
			openSum += g.OpenEmailCount + g.OpenMsgCount
			waitSum += g.WaitBreachCount
			handleSum += g.HandleBreachCount

			require.Equal(t, g.WaitBreachCount+g.HandleBreachCount, g.TotalBreachCount)
			require.LessOrEqual(t, g.WaitBreachCount, g.NewEmailCount+g.NewMsgCount)
			require.LessOrEqual(t, g.HandleBreachCount, g.OpenEmailCount+g.OpenMsgCount)
		}
		require.Equal(t, m.TotalNew, newSum)
		require.Equal(t, m.TotalOpen, openSum)
		require.Equal(t, m.BreachedWaitCount, waitSum)
		require.Equal(t, m.BreachedHandleCount, handleSum)
	}
}
