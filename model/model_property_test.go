package model

import (
	"encoding/json"
	"testing"
	"time"

	"pgregory.net/rapid"
)

var genText = rapid.StringMatching(`[A-Za-z0-9 .,'!-]{0,40}`)

func genTask(t *rapid.T) Task {
	cats := Categories()
	statuses := []Status{StatusAvailable, StatusOngoing, StatusArchived}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := rapid.IntRange(0, 5).Draw(t, "nCompletions")
	completions := make([]time.Time, n)
	offset := 0
	for i := range completions {
		offset += rapid.IntRange(1, 100000).Draw(t, "gap")
		completions[i] = base.Add(-time.Duration(offset) * time.Second)
	}

	return Task{
		ID:           NewID(),
		Title:        genText.Draw(t, "title"),
		Category:     cats[rapid.IntRange(0, len(cats)-1).Draw(t, "cat")],
		Trigger:      genText.Draw(t, "trigger"),
		Goal:         genText.Draw(t, "goal"),
		Instructions: rapid.SliceOf(genText).Draw(t, "instructions"),
		Duration:     rapid.IntRange(1, 240).Draw(t, "duration"),
		AnxietyLevel: int8(rapid.IntRange(1, 5).Draw(t, "anxiety")),
		Status:       statuses[rapid.IntRange(0, len(statuses)-1).Draw(t, "status")],
		Completions:  completions,
	}
}

// An empty patch yields an equal, independent copy.
func TestPropertyEmptyPatchIsClone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		task := genTask(t)
		got := task.Updated(TaskPatch{})
		if !task.Equal(got) {
			t.Fatalf("empty patch changed the task\nwant=%+v\ngot=%+v", task, got)
		}
	})
}

// JSON encoding preserves every field including completion order.
func TestPropertyJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		task := genTask(t)
		data, err := json.Marshal(task)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got Task
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !task.Equal(got) {
			t.Fatalf("round-trip mismatch\nwant=%+v\ngot=%+v", task, got)
		}
	})
}
