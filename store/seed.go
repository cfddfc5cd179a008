package store

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"exposuretrack/model"
)

//go:embed seed.yaml
var seedDocument []byte

type seedCompletion struct {
	DaysAgo int `yaml:"days_ago"`
	Hour    int `yaml:"hour"`
	Minute  int `yaml:"minute"`
}

type seedTask struct {
	Title        string           `yaml:"title"`
	Category     model.Category   `yaml:"category"`
	Trigger      string           `yaml:"trigger"`
	Goal         string           `yaml:"goal"`
	Instructions []string         `yaml:"instructions"`
	Duration     int              `yaml:"duration"`
	AnxietyLevel int8             `yaml:"anxiety_level"`
	Status       model.Status     `yaml:"status"`
	Completions  []seedCompletion `yaml:"completions"`
}

var parseSeed = sync.OnceValues(func() ([]seedTask, error) {
	var records []seedTask
	if err := yaml.Unmarshal(seedDocument, &records); err != nil {
		return nil, fmt.Errorf("parse seed document: %w", err)
	}
	for _, r := range records {
		if !r.Category.Valid() || !r.Status.Valid() {
			return nil, fmt.Errorf("seed task %q: invalid category or status", r.Title)
		}
	}
	return records, nil
})

// SeedTasks builds the demonstration set with completion times relative to
// now. Every call assigns fresh ids.
func SeedTasks(now time.Time) []model.Task {
	records, err := parseSeed()
	if err != nil {
		slog.Error("seed data unavailable", "error", err)
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(records))
	for _, r := range records {
		completions := make([]time.Time, 0, len(r.Completions))
		for _, c := range r.Completions {
			completions = append(completions, dateAt(now, c.DaysAgo, c.Hour, c.Minute))
		}
		tasks = append(tasks, model.Task{
			ID:           model.NewID(),
			Title:        r.Title,
			Category:     r.Category,
			Trigger:      r.Trigger,
			Goal:         r.Goal,
			Instructions: append([]string{}, r.Instructions...),
			Duration:     r.Duration,
			AnxietyLevel: r.AnxietyLevel,
			Status:       r.Status,
			Completions:  completions,
		})
	}
	return tasks
}

// dateAt is the calendar day daysAgo before now, at hour:minute local time.
func dateAt(now time.Time, daysAgo, hour, minute int) time.Time {
	y, m, d := now.AddDate(0, 0, -daysAgo).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location())
}
