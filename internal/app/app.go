// Package app wires a parsed CLI Request to the unusedfinder Engine and
// a report Formatter, the way lopper's own internal/app does for its
// TUI and analyse commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/unused-finder/monorepo-core/internal/config"
	"github.com/unused-finder/monorepo-core/internal/dotgraph"
	"github.com/unused-finder/monorepo-core/internal/report"
	"github.com/unused-finder/monorepo-core/internal/safeio"
	"github.com/unused-finder/monorepo-core/internal/unusedfinder"
	"github.com/unused-finder/monorepo-core/internal/walker"
)

var (
	ErrUnknownMode = errors.New("unknown mode")
)

// App is the top-level driver the CLI layer calls into.
type App struct {
	Formatter *report.Formatter
	Out       io.Writer
}

// New builds an App writing formatted output to out.
func New(out io.Writer) *App {
	return &App{Formatter: report.NewFormatter(), Out: out}
}

// Execute runs req's command and returns the text to print (the CLI
// layer writes it and appends a trailing newline if missing).
func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	cfg, err := loadConfig(req)
	if err != nil {
		return "", err
	}

	repoRoot := cfg.RepoRoot
	readDir := func(dir string) ([]walker.DirEntry, error) { return osReadDir(dir) }
	readFile := func(path string) ([]byte, error) { return safeio.ReadFileUnder(repoRoot, path) }
	fileExists := func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	engine := unusedfinder.New(cfg, readDir, readFile, fileExists, nil)

	switch req.Mode {
	case ModeAnalyse:
		return a.executeAnalyse(ctx, engine, cfg)
	case ModeGraph:
		return a.executeGraph(ctx, engine, req.GraphFilter)
	default:
		return "", ErrUnknownMode
	}
}

func (a *App) executeAnalyse(ctx context.Context, engine *unusedfinder.Engine, cfg *config.Config) (string, error) {
	run, err := engine.Analyze(ctx)
	if err != nil {
		return "", err
	}
	r := report.FromGraph(cfg.RepoRoot, runTimestamp(), run.Report, run.Walk.Warnings)
	return a.Formatter.Format(r, report.FormatTable)
}

func (a *App) executeGraph(ctx context.Context, engine *unusedfinder.Engine, filter string) (string, error) {
	run, err := engine.Analyze(ctx)
	if err != nil {
		return "", err
	}
	dot, err := dotgraph.Render(run.Graph, filter)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile("graph.dot", []byte(dot), 0o644); err != nil {
		return "", fmt.Errorf("write graph.dot: %w", err)
	}
	return "wrote graph.dot", nil
}

func loadConfig(req Request) (*config.Config, error) {
	data, err := os.ReadFile(req.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", req.ConfigPath, err)
	}
	if err := config.ValidateSchema(data); err != nil {
		return nil, err
	}
	cfg, err := config.Load(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.RepoRoot) {
		configDir := filepath.Dir(req.ConfigPath)
		cfg.RepoRoot = filepath.Join(configDir, cfg.RepoRoot)
	}
	cfg.DeadlockDetector = cfg.DeadlockDetector || req.DeadlockDetector
	return cfg, nil
}

func osReadDir(dir string) ([]walker.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]walker.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, walker.DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

// runTimestamp is a seam so tests can freeze the clock by swapping this var.
var runTimestamp = func() time.Time { return time.Now().UTC() }
