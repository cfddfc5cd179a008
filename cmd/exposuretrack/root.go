package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"exposuretrack/app"
	"exposuretrack/config"
	"exposuretrack/model"
	"exposuretrack/store"
	"exposuretrack/tui"
)

type rootOptions struct {
	configPath string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "exposuretrack",
		Short: "Plan, time and review exposure and response prevention exercises",
		Long: `exposuretrack keeps a personal list of ERP exposure tasks, runs a countdown
while you attempt one, and records every completion.

Without a subcommand it opens the interactive terminal UI.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory holding "+store.DefaultFileName+" and logs")

	root.AddCommand(newListCmd(opts), newInsightsCmd(opts), newPathCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "exposuretrack %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}

func newPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the location of the task document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), documentPath(cfg))
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		archived bool
		sortBy   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks without opening the UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseSortOrder(sortBy)
			if err != nil {
				return err
			}
			svc, closeFn, err := opts.openReadOnly()
			if err != nil {
				return err
			}
			defer closeFn()

			status := model.StatusAvailable
			if archived {
				status = model.StatusArchived
			}
			return printTasks(cmd.OutOrStdout(), svc.Tasks(status, order))
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "list archived tasks instead of available ones")
	cmd.Flags().StringVar(&sortBy, "sort", "title", "sort order: title, category or anxiety")
	return cmd
}

func newInsightsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Print streak and completion totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openReadOnly()
			if err != nil {
				return err
			}
			defer closeFn()

			ins := svc.Insights()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Current streak:  %d\n", ins.CurrentStreak)
			fmt.Fprintf(w, "Top category:    %s\n", ins.TopCategory)
			fmt.Fprintf(w, "Total completed: %d\n", ins.TotalCompleted)
			fmt.Fprintf(w, "Last 7 days:     %d\n", ins.ThisWeek)
			return nil
		},
	}
}

func (o *rootOptions) load() (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg, nil
}

// openReadOnly loads the collection without attaching a persister and
// without quarantining a corrupt document, so listing never touches the
// data directory.
func (o *rootOptions) openReadOnly() (*app.Service, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	gw := store.New(documentPath(cfg), store.WithLogger(logger), store.WithReadOnly())
	svc := app.NewService(gw.Load(), app.WithLogger(logger))
	return svc, closeLog, nil
}

func runTUI(opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	path := documentPath(cfg)
	lock, err := store.AcquireLock(path)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("exposuretrack is already running for %s", cfg.DataDir)
		}
		return err
	}
	defer lock.Release()

	gw := store.New(path, store.WithLogger(logger), store.WithBackups(cfg.Backups.Keep))
	svc := app.NewService(gw.Load(), app.WithPersister(gw), app.WithLogger(logger))
	logger.Info("exposuretrack started", "version", version, "document", path, "tasks", len(svc.All()))

	m := tui.NewModel(svc, "")
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("terminal UI failed", "error", err)
		return fmt.Errorf("run ui: %w", err)
	}
	logger.Info("exposuretrack stopped")
	return nil
}

func documentPath(cfg config.Config) string {
	return filepath.Join(cfg.DataDir, store.DefaultFileName)
}

// newLogger writes text records to the configured log file. The UI owns
// the terminal, so nothing is logged to stderr.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return logger, func() { _ = f.Close() }, nil
}

func parseSortOrder(s string) (model.SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "title":
		return model.SortByTitle, nil
	case "category":
		return model.SortByCategory, nil
	case "anxiety", "anxiety-level", "anxiety level":
		return model.SortByAnxietyLevel, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (use title, category or anxiety)", s)
	}
}

func printTasks(w io.Writer, tasks []model.Task) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tCATEGORY\tANXIETY\tMINUTES\tDONE\tLAST")
	for _, t := range tasks {
		last := "-"
		if at, ok := t.LastCompletion(); ok {
			last = at.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			t.Title, t.Category.Label(), t.AnxietyLevel, t.Duration, len(t.Completions), last)
	}
	return tw.Flush()
}
