package app

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"exposuretrack/model"
)

const undoStackLimit = 20

var (
	// ErrTaskNotFound reports a lookup miss. The collection is left
	// untouched, nothing is persisted and observers are not notified.
	ErrTaskNotFound  = errors.New("task not found")
	ErrSessionActive = errors.New("another task is already ongoing")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNotOngoing    = errors.New("task is not ongoing")
)

// Persister receives the full collection after every mutation. Failures
// are the persister's concern; the in-memory state stays authoritative.
type Persister interface {
	Save(tasks []model.Task)
}

// EventKind names the mutation behind a notification.
type EventKind string

const (
	EventAdded      EventKind = "added"
	EventUpdated    EventKind = "updated"
	EventCompleted  EventKind = "completed"
	EventDeleted    EventKind = "deleted"
	EventArchived   EventKind = "archived"
	EventUnarchived EventKind = "unarchived"
	EventStarted    EventKind = "started"
	EventCancelled  EventKind = "cancelled"
	EventUndone     EventKind = "undone"
)

// Event is delivered to observers after a mutation settled and was persisted.
type Event struct {
	Kind   EventKind
	TaskID string
}

// Observer is called synchronously, in mutation order.
type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Service owns the authoritative task collection. It is meant to be driven
// from a single goroutine and is not safe for concurrent use.
type Service struct {
	tasks []model.Task
	undo  [][]model.Task

	persister Persister
	observers []subscription
	nextSubID int

	now func() time.Time
	log *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithPersister(p Persister) Option {
	return func(s *Service) { s.persister = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a service over a copy of tasks.
func NewService(tasks []model.Task, opts ...Option) *Service {
	s := &Service{
		tasks: model.CloneTasks(tasks),
		undo:  [][]model.Task{},
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer and returns a function removing it.
func (s *Service) Subscribe(fn Observer) func() {
	s.nextSubID++
	id := s.nextSubID
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// All returns a copy of the collection in insertion order.
func (s *Service) All() []model.Task {
	return model.CloneTasks(s.tasks)
}

// Get returns a copy of the task with id.
func (s *Service) Get(id string) (model.Task, error) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), nil
	}
	return model.Task{}, ErrTaskNotFound
}

// Tasks returns the tasks with the given status sorted by order. Ties keep
// collection order.
func (s *Service) Tasks(status model.Status, order model.SortOrder) []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	sortTasks(out, order)
	return out
}

// Add appends task as given. Unique ids are the caller's job (model.NewID).
func (s *Service) Add(task model.Task) model.Task {
	s.pushUndo()
	stored := task.Clone()
	s.tasks = append(s.tasks, stored)
	s.commit(Event{Kind: EventAdded, TaskID: stored.ID})
	return stored.Clone()
}

// Update replaces every field of the task with the same id.
func (s *Service) Update(task model.Task) error {
	i := s.indexOf(task.ID)
	if i < 0 {
		return ErrTaskNotFound
	}
	s.pushUndo()
	s.tasks[i] = task.Clone()
	s.commit(Event{Kind: EventUpdated, TaskID: task.ID})
	return nil
}

// MarkCompleted records a completion now and makes the task available again.
func (s *Service) MarkCompleted(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	s.pushUndo()
	t := s.tasks[i]
	completions := make([]time.Time, 0, len(t.Completions)+1)
	completions = append(completions, s.now())
	completions = append(completions, t.Completions...)
	s.tasks[i] = t.Updated(model.TaskPatch{
		Status:      model.Ptr(model.StatusAvailable),
		Completions: completions,
	})
	s.commit(Event{Kind: EventCompleted, TaskID: id})
	return s.tasks[i].Clone(), nil
}

// Delete removes every task carrying id.
func (s *Service) Delete(id string) error {
	if s.indexOf(id) < 0 {
		return ErrTaskNotFound
	}
	s.pushUndo()
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.commit(Event{Kind: EventDeleted, TaskID: id})
	return nil
}

func (s *Service) Archive(id string) error {
	_, err := s.setStatus(id, model.StatusArchived, EventArchived)
	return err
}

func (s *Service) Unarchive(id string) error {
	_, err := s.setStatus(id, model.StatusAvailable, EventUnarchived)
	return err
}

// Start marks the task ongoing. Only one task may be ongoing at a time
// through this entry point; Update does not enforce it.
func (s *Service) Start(id string) (model.Task, error) {
	if s.indexOf(id) < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	for _, t := range s.tasks {
		if t.Status == model.StatusOngoing && t.ID != id {
			return model.Task{}, ErrSessionActive
		}
	}
	return s.setStatus(id, model.StatusOngoing, EventStarted)
}

// Cancel abandons an attempt: the ongoing task becomes available and no
// completion is recorded. Any other status is refused with ErrNotOngoing.
func (s *Service) Cancel(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	if s.tasks[i].Status != model.StatusOngoing {
		return model.Task{}, ErrNotOngoing
	}
	return s.setStatus(id, model.StatusAvailable, EventCancelled)
}

// Ongoing returns the task currently in a session, if any.
func (s *Service) Ongoing() (model.Task, bool) {
	for _, t := range s.tasks {
		if t.Status == model.StatusOngoing {
			return t.Clone(), true
		}
	}
	return model.Task{}, false
}

// Undo reverts the latest mutation.
func (s *Service) Undo() error {
	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.tasks = last
	s.commit(Event{Kind: EventUndone})
	return nil
}

// CanUndo reports whether Undo has anything to revert.
func (s *Service) CanUndo() bool {
	return len(s.undo) > 0
}

// Insights summarizes the completion history as of now.
func (s *Service) Insights() Insights {
	return ComputeInsights(s.tasks, s.now())
}

func (s *Service) setStatus(id string, status model.Status, kind EventKind) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	s.pushUndo()
	s.tasks[i] = s.tasks[i].Updated(model.TaskPatch{Status: &status})
	s.commit(Event{Kind: kind, TaskID: id})
	return s.tasks[i].Clone(), nil
}

func (s *Service) commit(ev Event) {
	if s.persister != nil {
		s.persister.Save(model.CloneTasks(s.tasks))
	}
	s.log.Debug("task store changed", "event", string(ev.Kind), "task_id", ev.TaskID, "count", len(s.tasks))

	observers := make([]subscription, len(s.observers))
	copy(observers, s.observers)
	for _, sub := range observers {
		sub.fn(ev)
	}
}

func (s *Service) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) pushUndo() {
	s.undo = append(s.undo, model.CloneTasks(s.tasks))
	if len(s.undo) > undoStackLimit {
		s.undo = s.undo[len(s.undo)-undoStackLimit:]
	}
}

func sortTasks(tasks []model.Task, order model.SortOrder) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a := tasks[i]
		b := tasks[j]
		switch order {
		case model.SortByCategory:
			return a.Category.Label() < b.Category.Label()
		case model.SortByAnxietyLevel:
			return a.AnxietyLevel < b.AnxietyLevel
		default:
			return a.Title < b.Title
		}
	})
}
