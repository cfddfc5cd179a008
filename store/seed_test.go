package store

import (
	"testing"
	"time"

	"exposuretrack/model"
)

func TestSeedTasksCoverEveryCategoryAndMixedStatuses(t *testing.T) {
	tasks := SeedTasks(fixedNow)
	if len(tasks) != 8 {
		t.Fatalf("expected 8 seed tasks, got %d", len(tasks))
	}

	categories := map[model.Category]bool{}
	statuses := map[model.Status]int{}
	ids := map[string]bool{}
	for _, task := range tasks {
		categories[task.Category] = true
		statuses[task.Status]++
		if ids[task.ID] {
			t.Fatalf("duplicate seed id %s", task.ID)
		}
		ids[task.ID] = true
		if len(task.Instructions) == 0 || task.Duration <= 0 {
			t.Fatalf("seed task %q is not well formed", task.Title)
		}
		if task.AnxietyLevel < 1 || task.AnxietyLevel > 5 {
			t.Fatalf("seed task %q anxiety out of range: %d", task.Title, task.AnxietyLevel)
		}
		if len(task.Completions) == 0 {
			t.Fatalf("seed task %q has no history", task.Title)
		}
		for i := 1; i < len(task.Completions); i++ {
			if task.Completions[i].After(task.Completions[i-1]) {
				t.Fatalf("seed task %q completions not most-recent-first", task.Title)
			}
		}
		if !task.Completions[0].Before(fixedNow) {
			t.Fatalf("seed task %q has a completion in the future", task.Title)
		}
	}

	for _, c := range model.Categories() {
		if !categories[c] {
			t.Fatalf("expected seed category %s", c)
		}
	}
	if statuses[model.StatusAvailable] != 6 || statuses[model.StatusArchived] != 2 {
		t.Fatalf("unexpected status mix %v", statuses)
	}
}

func TestSeedTasksAssignFreshIDs(t *testing.T) {
	a := SeedTasks(fixedNow)
	b := SeedTasks(fixedNow)
	if a[0].ID == b[0].ID {
		t.Fatalf("expected fresh ids per seed set")
	}
	if a[0].Title != b[0].Title {
		t.Fatalf("expected same seed content")
	}
}

func TestDateAtUsesCalendarDays(t *testing.T) {
	got := dateAt(fixedNow, 3, 14, 15)
	want := time.Date(2026, 2, 16, 14, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
