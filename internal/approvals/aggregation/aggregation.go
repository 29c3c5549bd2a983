// Package aggregation turns a guardian's flat approval records into the
// pending / upcoming / past read model. Everything here is pure: no I/O,
// no clock, no mutation of the input.
package aggregation

import (
	"sort"
	"time"

	"ms-approvals/internal/models"
)

// DefaultPastLimit caps the past bucket
const DefaultPastLimit = 10

// IsExpired reports whether the response deadline has elapsed at now.
// The deadline instant itself counts as elapsed.
func IsExpired(deadline, now time.Time) bool {
	return !now.Before(deadline)
}

// GroupByEvent folds approvals into one EventApprovals per event, tallying statuses.
// Approvals without a joined event are dropped.
func GroupByEvent(approvals []models.Approval, now time.Time) []models.EventApprovals {
	index := make(map[string]int)
	var groups []models.EventApprovals

	for _, a := range approvals {
		if a.Event == nil {
			continue
		}
		i, ok := index[a.EventID]
		if !ok {
			i = len(groups)
			index[a.EventID] = i
			groups = append(groups, models.EventApprovals{
				Event:     *a.Event,
				Approvals: []models.ApprovalEntry{},
				IsExpired: IsExpired(a.Event.Deadline, now),
			})
		}

		g := &groups[i]
		g.Approvals = append(g.Approvals, entryOf(a))
		switch a.Status {
		case models.ApprovalStatusApproved:
			g.ApprovedCount++
		case models.ApprovalStatusDeclined:
			g.DeclinedCount++
		default:
			g.PendingCount++
		}
	}
	return groups
}

func entryOf(a models.Approval) models.ApprovalEntry {
	entry := models.ApprovalEntry{
		ApprovalID:  a.ID,
		StudentID:   a.StudentID,
		Status:      a.Status,
		Remarks:     a.Remarks,
		RespondedAt: a.RespondedAt,
	}
	if a.Student != nil {
		entry.StudentName = a.Student.FullName
	}
	return entry
}

// Categorize builds the guardian view. Bucket rules, first match wins:
// started before now is past; pending work before the deadline is pending;
// anything else is upcoming. Totals cover every group, including truncated past ones.
func Categorize(approvals []models.Approval, now time.Time, pastLimit int) models.GuardianEventsView {
	if pastLimit <= 0 {
		pastLimit = DefaultPastLimit
	}

	view := models.GuardianEventsView{
		PendingEvents:  []models.EventApprovals{},
		UpcomingEvents: []models.EventApprovals{},
		PastEvents:     []models.EventApprovals{},
	}

	for _, g := range GroupByEvent(approvals, now) {
		view.Stats.TotalApproved += g.ApprovedCount
		view.Stats.TotalPending += g.PendingCount
		view.Stats.TotalDeclined += g.DeclinedCount

		switch {
		case g.Event.StartDate.Before(now):
			view.PastEvents = append(view.PastEvents, g)
		case g.PendingCount > 0 && !g.IsExpired:
			view.PendingEvents = append(view.PendingEvents, g)
		default:
			view.UpcomingEvents = append(view.UpcomingEvents, g)
		}
	}

	sortBy(view.PendingEvents, func(a, b models.EventApprovals) int {
		return a.Event.Deadline.Compare(b.Event.Deadline)
	})
	sortBy(view.UpcomingEvents, func(a, b models.EventApprovals) int {
		return a.Event.StartDate.Compare(b.Event.StartDate)
	})
	sortBy(view.PastEvents, func(a, b models.EventApprovals) int {
		return b.Event.StartDate.Compare(a.Event.StartDate)
	})
	if len(view.PastEvents) > pastLimit {
		view.PastEvents = view.PastEvents[:pastLimit]
	}

	return view
}

// sortBy orders groups by cmp, breaking ties on event id
func sortBy(groups []models.EventApprovals, cmp func(a, b models.EventApprovals) int) {
	sort.SliceStable(groups, func(i, j int) bool {
		if c := cmp(groups[i], groups[j]); c != 0 {
			return c < 0
		}
		return groups[i].Event.ID < groups[j].Event.ID
	})
}
