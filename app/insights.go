package app

import (
	"sort"
	"time"

	"exposuretrack/model"
)

// NoTopCategory is reported when nothing has been completed yet.
const NoTopCategory = "None"

// Insights summarizes completion history.
type Insights struct {
	// CurrentStreak counts consecutive calendar days with a completion,
	// walking back from the most recent completion day.
	CurrentStreak int
	// TopCategory is the label of the category with most completions.
	TopCategory    string
	TotalCompleted int
	// ThisWeek counts completions in the seven days before now.
	ThisWeek int
}

// ComputeInsights derives Insights from tasks. Calendar days are taken in
// now's location.
func ComputeInsights(tasks []model.Task, now time.Time) Insights {
	loc := now.Location()
	weekStart := now.AddDate(0, 0, -7)

	days := map[time.Time]bool{}
	perCategory := map[model.Category]int{}
	out := Insights{TopCategory: NoTopCategory}

	for _, t := range tasks {
		perCategory[t.Category] += len(t.Completions)
		out.TotalCompleted += len(t.Completions)
		for _, c := range t.Completions {
			days[startOfDay(c, loc)] = true
			if !c.Before(weekStart) {
				out.ThisWeek++
			}
		}
	}

	out.CurrentStreak = streak(days, loc)
	out.TopCategory = topCategory(perCategory)
	return out
}

func streak(days map[time.Time]bool, loc *time.Location) int {
	if len(days) == 0 {
		return 0
	}
	var latest time.Time
	for d := range days {
		if d.After(latest) {
			latest = d
		}
	}

	n := 0
	for cursor := latest; days[cursor]; {
		n++
		y, m, d := cursor.Date()
		cursor = time.Date(y, m, d-1, 0, 0, 0, 0, loc)
	}
	return n
}

func topCategory(counts map[model.Category]int) string {
	best := 0
	var leaders []string
	for c, n := range counts {
		switch {
		case n > best:
			best = n
			leaders = []string{c.Label()}
		case n == best && n > 0:
			leaders = append(leaders, c.Label())
		}
	}
	if best == 0 {
		return NoTopCategory
	}
	sort.Strings(leaders)
	return leaders[0]
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
