package aggregation

import (
	"fmt"
	"testing"
	"time"

	"ms-approvals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func event(id string, start, deadline time.Duration) *models.Event {
	return &models.Event{
		ID:               id,
		Title:            "Event " + id,
		Type:             models.EventTypeTrip,
		StartDate:        now.Add(start),
		Deadline:         now.Add(deadline),
		RequiresApproval: true,
	}
}

func approval(id string, e *models.Event, student string, status models.ApprovalStatus) models.Approval {
	a := models.Approval{
		ID:         id,
		EventID:    e.ID,
		StudentID:  student,
		GuardianID: "g-1",
		Status:     status,
		Event:      e,
		Student:    &models.Student{ID: student, FullName: "Child " + student},
	}
	if status != models.ApprovalStatusPending {
		at := now.Add(-time.Hour)
		a.RespondedAt = &at
	}
	return a
}

func eventIDs(groups []models.EventApprovals) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Event.ID)
	}
	return ids
}

func TestCategorizeEmptyInput(t *testing.T) {
	view := Categorize(nil, now, DefaultPastLimit)

	assert.NotNil(t, view.PendingEvents)
	assert.NotNil(t, view.UpcomingEvents)
	assert.NotNil(t, view.PastEvents)
	assert.Empty(t, view.PendingEvents)
	assert.Empty(t, view.UpcomingEvents)
	assert.Empty(t, view.PastEvents)
	assert.Equal(t, models.GuardianStats{}, view.Stats)
}

func TestCategorizePendingWithTwoChildren(t *testing.T) {
	a := event("A", 72*time.Hour, 24*time.Hour)
	view := Categorize([]models.Approval{
		approval("1", a, "s-1", models.ApprovalStatusPending),
		approval("2", a, "s-2", models.ApprovalStatusPending),
	}, now, DefaultPastLimit)

	require.Len(t, view.PendingEvents, 1)
	g := view.PendingEvents[0]
	assert.Equal(t, "A", g.Event.ID)
	assert.Equal(t, 2, g.PendingCount)
	assert.False(t, g.IsExpired)
	assert.Equal(t, "Child s-1", g.Approvals[0].StudentName)
	assert.Equal(t, 2, view.Stats.TotalPending)

	// both declined: moves out of pending
	view = Categorize([]models.Approval{
		approval("1", a, "s-1", models.ApprovalStatusDeclined),
		approval("2", a, "s-2", models.ApprovalStatusDeclined),
	}, now, DefaultPastLimit)
	assert.Empty(t, view.PendingEvents)
	assert.Equal(t, []string{"A"}, eventIDs(view.UpcomingEvents))
	assert.Equal(t, 2, view.Stats.TotalDeclined)
	assert.Zero(t, view.Stats.TotalPending)
}

func TestCategorizeExpiredDeadlineGoesUpcoming(t *testing.T) {
	b := event("B", 48*time.Hour, -24*time.Hour)
	view := Categorize([]models.Approval{
		approval("1", b, "s-1", models.ApprovalStatusPending),
	}, now, DefaultPastLimit)

	assert.Empty(t, view.PendingEvents)
	require.Len(t, view.UpcomingEvents, 1)
	assert.True(t, view.UpcomingEvents[0].IsExpired)
	assert.Equal(t, 1, view.Stats.TotalPending)
}

func TestCategorizeDeadlineAtNowIsExpired(t *testing.T) {
	e := event("edge", 48*time.Hour, 0)
	view := Categorize([]models.Approval{approval("1", e, "s-1", models.ApprovalStatusPending)}, now, DefaultPastLimit)

	assert.Empty(t, view.PendingEvents)
	require.Len(t, view.UpcomingEvents, 1)
	assert.True(t, view.UpcomingEvents[0].IsExpired)
}

func TestCategorizeStartedEventIsPastRegardlessOfStatus(t *testing.T) {
	c := event("C", -24*time.Hour, 24*time.Hour)
	view := Categorize([]models.Approval{
		approval("1", c, "s-1", models.ApprovalStatusPending),
		approval("2", c, "s-2", models.ApprovalStatusDeclined),
	}, now, DefaultPastLimit)

	assert.Empty(t, view.PendingEvents)
	assert.Empty(t, view.UpcomingEvents)
	assert.Equal(t, []string{"C"}, eventIDs(view.PastEvents))
	assert.Equal(t, 1, view.Stats.TotalDeclined)
	assert.Equal(t, 1, view.Stats.TotalPending)
}

func TestCategorizeSortOrders(t *testing.T) {
	p1 := event("p1", 10*24*time.Hour, 5*24*time.Hour)
	p2 := event("p2", 20*24*time.Hour, 2*24*time.Hour)
	u1 := event("u1", 9*24*time.Hour, -time.Hour)
	u2 := event("u2", 3*24*time.Hour, 24*time.Hour)
	old := event("old", -10*24*time.Hour, -12*24*time.Hour)
	recent := event("recent", -time.Hour, -48*time.Hour)

	view := Categorize([]models.Approval{
		approval("1", p1, "s-1", models.ApprovalStatusPending),
		approval("2", p2, "s-1", models.ApprovalStatusPending),
		approval("3", u1, "s-1", models.ApprovalStatusPending),
		approval("4", u2, "s-1", models.ApprovalStatusApproved),
		approval("5", old, "s-1", models.ApprovalStatusApproved),
		approval("6", recent, "s-1", models.ApprovalStatusApproved),
	}, now, DefaultPastLimit)

	assert.Equal(t, []string{"p2", "p1"}, eventIDs(view.PendingEvents))
	assert.Equal(t, []string{"u2", "u1"}, eventIDs(view.UpcomingEvents))
	assert.Equal(t, []string{"recent", "old"}, eventIDs(view.PastEvents))
}

func TestCategorizePastTruncatedButCounted(t *testing.T) {
	var approvals []models.Approval
	for i := 0; i < 12; i++ {
		e := event(fmt.Sprintf("past-%02d", i), -time.Duration(i+1)*time.Hour, -48*time.Hour)
		approvals = append(approvals, approval(fmt.Sprintf("a-%d", i), e, "s-1", models.ApprovalStatusDeclined))
	}

	view := Categorize(approvals, now, DefaultPastLimit)

	require.Len(t, view.PastEvents, 10)
	assert.Equal(t, "past-00", view.PastEvents[0].Event.ID)
	assert.Equal(t, "past-09", view.PastEvents[9].Event.ID)
	assert.Equal(t, 12, view.Stats.TotalDeclined)
}

func TestCategorizeIsExhaustiveAndDisjoint(t *testing.T) {
	var approvals []models.Approval
	offsets := []time.Duration{-72, -1, 1, 5, 30, 200}
	statuses := []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusApproved, models.ApprovalStatusDeclined}
	n := 0
	for i, start := range offsets {
		for j, deadline := range offsets {
			e := event(fmt.Sprintf("e-%d-%d", i, j), start*time.Hour, deadline*time.Hour)
			for k, st := range statuses[:1+(i+j)%3] {
				approvals = append(approvals, approval(fmt.Sprintf("%d-%d-%d", i, j, k), e, fmt.Sprintf("s-%d", k), st))
				n++
			}
		}
	}

	view := Categorize(approvals, now, 1000)

	seen := make(map[string]int)
	for _, bucket := range [][]models.EventApprovals{view.PendingEvents, view.UpcomingEvents, view.PastEvents} {
		for _, g := range bucket {
			seen[g.Event.ID]++
		}
	}
	assert.Len(t, seen, len(offsets)*len(offsets))
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %s in more than one bucket", id)
	}
	assert.Equal(t, n, view.Stats.TotalPending+view.Stats.TotalApproved+view.Stats.TotalDeclined)

	again := Categorize(approvals, now, 1000)
	assert.Equal(t, view, again)
}

func TestGroupByEventSkipsMissingEvent(t *testing.T) {
	e := event("A", time.Hour, time.Hour)
	orphan := approval("x", e, "s-1", models.ApprovalStatusPending)
	orphan.Event = nil
	orphan.EventID = "gone"

	groups := GroupByEvent([]models.Approval{orphan, approval("1", e, "s-2", models.ApprovalStatusApproved)}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].ApprovedCount)
}
