package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleTask() Task {
	now := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	return Task{
		ID:           "9f1c2b1e-7c56-4d67-9f39-1e2d3c4b5a69",
		Title:        "Touch a door handle",
		Category:     CategoryContamination,
		Trigger:      "Germs on shared surfaces.",
		Goal:         "Skip washing for a while.",
		Instructions: []string{"Grasp the handle.", "Wait 20 minutes."},
		Duration:     20,
		AnxietyLevel: 4,
		Status:       StatusArchived,
		Completions:  []time.Time{now, now.Add(-48 * time.Hour)},
	}
}

func TestTaskSerializationRoundTrip(t *testing.T) {
	task := sampleTask()

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Task
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !task.Equal(got) {
		t.Fatalf("round-trip mismatch\nwant=%+v\ngot=%+v", task, got)
	}
}

func TestTaskJSONUsesLabels(t *testing.T) {
	data, err := json.Marshal(sampleTask())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	doc := string(data)
	for _, want := range []string{`"category":"Contamination"`, `"status":"Archived"`, `"anxietyLevel":4`, `"completions":["2026-02-19T12:00:00Z"`} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %s in %s", want, doc)
		}
	}
}

func TestUnknownLabelsFailToDecode(t *testing.T) {
	cases := []string{
		`{"id":"a","category":"Gardening","status":"Available"}`,
		`{"id":"a","category":"Checking","status":"Paused"}`,
	}
	for _, doc := range cases {
		var got Task
		if err := json.Unmarshal([]byte(doc), &got); err == nil {
			t.Fatalf("expected decode error for %s", doc)
		}
	}
}

func TestUpdatedOverridesOnlyGivenFields(t *testing.T) {
	orig := sampleTask()
	got := orig.Updated(TaskPatch{Status: Ptr(StatusOngoing), Title: Ptr("New title")})

	if got.ID != orig.ID {
		t.Fatalf("id must not change")
	}
	if got.Status != StatusOngoing || got.Title != "New title" {
		t.Fatalf("expected overrides applied, got %+v", got)
	}
	if got.Goal != orig.Goal || got.Duration != orig.Duration || len(got.Completions) != 2 {
		t.Fatalf("expected untouched fields kept, got %+v", got)
	}
	if orig.Status != StatusArchived {
		t.Fatalf("original must not be modified")
	}

	got.Instructions[0] = "changed"
	if orig.Instructions[0] == "changed" {
		t.Fatalf("updated copy must not share instruction storage")
	}
}

func TestUpdatedEmptySliceClears(t *testing.T) {
	got := sampleTask().Updated(TaskPatch{Completions: []time.Time{}})
	if len(got.Completions) != 0 {
		t.Fatalf("expected completions cleared, got %d", len(got.Completions))
	}
}

func TestSortOrderNextCycles(t *testing.T) {
	o := SortByTitle
	seen := map[SortOrder]bool{}
	for i := 0; i < len(SortOrders()); i++ {
		seen[o] = true
		o = o.Next()
	}
	if o != SortByTitle || len(seen) != 3 {
		t.Fatalf("expected a full cycle back to title, got %q after %v", o, seen)
	}
}

func TestDraftValidation(t *testing.T) {
	valid := Draft{
		Title:        "Leave items unaligned",
		Category:     CategorySymmetry,
		Trigger:      "Things not just right.",
		Goal:         "Resist fixing.",
		Instructions: []string{"  Place objects off-center ", "", "   "},
		Duration:     30,
		AnxietyLevel: 3,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	task, err := valid.NewTask()
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.ID == "" || task.Status != StatusAvailable || len(task.Completions) != 0 {
		t.Fatalf("unexpected new task %+v", task)
	}
	if len(task.Instructions) != 1 || task.Instructions[0] != "Place objects off-center" {
		t.Fatalf("expected trimmed instructions without blanks, got %q", task.Instructions)
	}

	broken := []Draft{
		func() Draft { d := valid; d.Title = " "; return d }(),
		func() Draft { d := valid; d.Trigger = ""; return d }(),
		func() Draft { d := valid; d.Goal = ""; return d }(),
		func() Draft { d := valid; d.Instructions = []string{"", " "}; return d }(),
		func() Draft { d := valid; d.Duration = 0; return d }(),
		func() Draft { d := valid; d.AnxietyLevel = 6; return d }(),
		func() Draft { d := valid; d.AnxietyLevel = 0; return d }(),
		func() Draft { d := valid; d.Category = "Gardening"; return d }(),
	}
	for i, d := range broken {
		if err := d.Validate(); !errors.Is(err, ErrInvalidDraft) {
			t.Fatalf("case %d: expected ErrInvalidDraft, got %v", i, err)
		}
	}
}

func TestDraftApplyToKeepsIdentityAndHistory(t *testing.T) {
	orig := sampleTask()
	d := DraftFrom(orig)
	d.Title = "Edited"
	d.Duration = 45

	got, err := d.ApplyTo(orig)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.ID != orig.ID || got.Status != orig.Status || len(got.Completions) != len(orig.Completions) {
		t.Fatalf("expected id/status/completions kept, got %+v", got)
	}
	if got.Title != "Edited" || got.Duration != 45 {
		t.Fatalf("expected edits applied, got %+v", got)
	}
}

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft()
	if d.Category != CategoryContamination || d.Duration != DefaultDuration || d.AnxietyLevel != DefaultAnxietyLevel {
		t.Fatalf("unexpected defaults %+v", d)
	}
	if err := d.Validate(); err == nil {
		t.Fatalf("blank draft must not validate")
	}
}
