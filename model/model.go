package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is the kind of compulsion an exercise targets.
type Category string

const (
	CategoryContamination Category = "Contamination"
	CategoryChecking      Category = "Checking"
	CategorySymmetry      Category = "Symmetry"
	CategoryRuminations   Category = "Ruminations"
	CategoryHoarding      Category = "Hoarding"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryContamination,
		CategoryChecking,
		CategorySymmetry,
		CategoryRuminations,
		CategoryHoarding,
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryContamination, CategoryChecking, CategorySymmetry, CategoryRuminations, CategoryHoarding:
		return true
	}
	return false
}

// Label is the display label, also used as the persisted value.
func (c Category) Label() string {
	return string(c)
}

func (c *Category) UnmarshalText(text []byte) error {
	v := Category(text)
	if !v.Valid() {
		return fmt.Errorf("unknown category %q", string(text))
	}
	*c = v
	return nil
}

// Status decides which list a task shows up in.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusOngoing   Status = "Ongoing"
	StatusArchived  Status = "Archived"
)

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOngoing, StatusArchived:
		return true
	}
	return false
}

func (s *Status) UnmarshalText(text []byte) error {
	v := Status(text)
	if !v.Valid() {
		return fmt.Errorf("unknown status %q", string(text))
	}
	*s = v
	return nil
}

// SortOrder is the presentation order of a task list.
type SortOrder string

const (
	SortByTitle        SortOrder = "Title"
	SortByCategory     SortOrder = "Category"
	SortByAnxietyLevel SortOrder = "Anxiety Level"
)

// SortOrders returns every sort order in menu order.
func SortOrders() []SortOrder {
	return []SortOrder{SortByTitle, SortByCategory, SortByAnxietyLevel}
}

// Next cycles to the following sort order, wrapping around.
func (o SortOrder) Next() SortOrder {
	orders := SortOrders()
	for i, v := range orders {
		if v == o {
			return orders[(i+1)%len(orders)]
		}
	}
	return SortByTitle
}

// Task is one exposure exercise plus its completion history.
// Completions are kept most-recent-first.
type Task struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Category     Category    `json:"category"`
	Trigger      string      `json:"trigger"`
	Goal         string      `json:"goal"`
	Instructions []string    `json:"instructions"`
	Duration     int         `json:"duration"`
	AnxietyLevel int8        `json:"anxietyLevel"`
	Status       Status      `json:"status"`
	Completions  []time.Time `json:"completions"`
}

// TaskPatch lists field overrides for Task.Updated. Nil pointers and nil
// slices keep the current value; an empty non-nil slice clears it.
type TaskPatch struct {
	Title        *string
	Category     *Category
	Trigger      *string
	Goal         *string
	Instructions []string
	Duration     *int
	AnxietyLevel *int8
	Status       *Status
	Completions  []time.Time
}

// Ptr returns a pointer to v, for building a TaskPatch inline.
func Ptr[T any](v T) *T {
	return &v
}

// Updated returns a copy of t with the patch applied. The id never changes.
func (t Task) Updated(p TaskPatch) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Trigger != nil {
		out.Trigger = *p.Trigger
	}
	if p.Goal != nil {
		out.Goal = *p.Goal
	}
	if p.Instructions != nil {
		out.Instructions = append([]string{}, p.Instructions...)
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.AnxietyLevel != nil {
		out.AnxietyLevel = *p.AnxietyLevel
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Completions != nil {
		out.Completions = append([]time.Time{}, p.Completions...)
	}
	return out
}

// Clone returns a deep copy so callers never share slices with the store.
func (t Task) Clone() Task {
	out := t
	out.Instructions = make([]string, len(t.Instructions))
	copy(out.Instructions, t.Instructions)
	out.Completions = make([]time.Time, len(t.Completions))
	copy(out.Completions, t.Completions)
	return out
}

// Equal compares field by field, using time.Equal for completions and
// treating nil and empty slices alike.
func (t Task) Equal(o Task) bool {
	if t.ID != o.ID || t.Title != o.Title || t.Category != o.Category ||
		t.Trigger != o.Trigger || t.Goal != o.Goal || t.Duration != o.Duration ||
		t.AnxietyLevel != o.AnxietyLevel || t.Status != o.Status {
		return false
	}
	if len(t.Instructions) != len(o.Instructions) || len(t.Completions) != len(o.Completions) {
		return false
	}
	for i := range t.Instructions {
		if t.Instructions[i] != o.Instructions[i] {
			return false
		}
	}
	for i := range t.Completions {
		if !t.Completions[i].Equal(o.Completions[i]) {
			return false
		}
	}
	return true
}

// LastCompletion returns the most recent completion, if any.
func (t Task) LastCompletion() (time.Time, bool) {
	if len(t.Completions) == 0 {
		return time.Time{}, false
	}
	return t.Completions[0], true
}

// NewID returns a fresh task identifier.
func NewID() string {
	return uuid.NewString()
}

// CloneTasks deep-copies a collection.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}
