package urp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
)

type Options struct {
	Root              string
	UseNvim           bool
	IncludeIncomplete bool
	Logger            *slog.Logger
}

type ProgressUpdate func(current, total int)

// App applies a ParsedResponse to a project tree. It is the file-apply
// collaborator for the CLI; the parser itself never touches disk.
type App struct {
	opts             Options
	resolver         *PathResolver
	files            *FileManager
	logger           *slog.Logger
	progressCallback ProgressUpdate
}

type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }

func NewApp(opts Options) (*App, error) {
	pr, err := NewPathResolver(opts.Root)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{
		opts:     opts,
		resolver: pr,
		files:    NewFileManager(pr.Root()),
		logger:   logger,
	}, nil
}

func (a *App) SetProgressCallback(cb ProgressUpdate) { a.progressCallback = cb }

func (a *App) Execute(ctx context.Context, res *ParsedResponse) (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	plan := CreatePlan(res, a.resolver, a.opts.IncludeIncomplete)
	if len(plan.Changes) == 0 && len(plan.Deletes) == 0 {
		s := Summary{Message: "Nothing to do"}
		for _, sk := range plan.Skipped {
			s.Skipped = append(s.Skipped, sk.Path+" ("+sk.Reason+")")
		}
		return s, nil
	}
	if err := CreateDirs(plan.DirsToCreate); err != nil {
		return Summary{}, err
	}

	writer := Applier(a.files)
	if a.opts.UseNvim {
		nv, err := NewNvimManager(ctx, a.logger)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to connect to nvim: %w", err)
		}
		defer nv.Close()
		writer = nv
	}
	return a.applyChanges(plan, writer), nil
}

func (a *App) applyChanges(plan *ExecutionPlan, writer Applier) Summary {
	var s Summary
	for _, sk := range plan.Skipped {
		s.Skipped = append(s.Skipped, sk.Path+" ("+sk.Reason+")")
	}

	var pending []FileChange
	for _, c := range plan.Changes {
		switch plan.FileActions[c.Path] {
		case "unchanged":
			s.Unchanged = append(s.Unchanged, c.Path)
			continue
		case "modify":
			if hash, err := a.files.Backup(c.Path); err != nil {
				a.logger.Warn("backup failed", "path", c.Path, "error", err)
			} else {
				a.logger.Debug("backed up", "path", c.Path, "blob", hash)
			}
		}
		pending = append(pending, c)
	}

	total := len(pending) + len(plan.Deletes)
	updated, failed := writer.ApplyChanges(pending, func(n int) { a.reportProgress(n, total) })
	for _, p := range updated {
		if plan.FileActions[p] == "create" {
			s.Created = append(s.Created, p)
		} else {
			s.Modified = append(s.Modified, p)
		}
	}
	s.Failed = append(s.Failed, failed...)

	deleted, failedDeletes := a.files.DeleteFiles(plan.Deletes)
	s.Deleted = deleted
	s.Failed = append(s.Failed, failedDeletes...)
	a.reportProgress(total, total)

	a.relativizeSummaryPaths(&s)
	return s
}

func (a *App) reportProgress(current, total int) {
	if a.progressCallback != nil {
		a.progressCallback(current, total)
	}
}

func (a *App) relativizeSummaryPaths(s *Summary) {
	relList := func(paths []string) []string {
		var res []string
		for _, p := range paths {
			res = append(res, a.resolver.Rel(p))
		}
		return res
	}
	s.Created = relList(s.Created)
	s.Modified = relList(s.Modified)
	s.Unchanged = relList(s.Unchanged)
	s.Deleted = relList(s.Deleted)
	s.Failed = relList(s.Failed)
}
