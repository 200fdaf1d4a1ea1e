package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/join/internal/adapters/server"
	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/config"
	"github.com/evanschultz/join/internal/tui"
)

// fakeProgram records the model it was built with instead of opening a terminal.
type fakeProgram struct {
	model tea.Model
	err   error
}

func (p *fakeProgram) Run() (tea.Model, error) {
	return p.model, p.err
}

// clearJoinEnv keeps host JOIN_* variables out of the command under test.
func clearJoinEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JOIN_CONFIG", "JOIN_DB_PATH", "JOIN_DEV_MODE", "JOIN_APP_NAME", "JOIN_AUTH_SECRET"} {
		t.Setenv(key, "")
	}
}

// storeArgs points a command at a temp config and database.
func storeArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--dev=false",
		"--config", filepath.Join(dir, "config.toml"),
		"--db", filepath.Join(dir, "join.db"),
	}
}

const sampleSnapshot = `{
  "version": "join.snapshot.v1",
  "contacts": [
    {"id": "c1", "name": "Anja Schulz", "email": "anja@example.com", "color": "#FF7A00"}
  ],
  "tasks": [
    {"id": "t1", "status": "todo", "title": "Write docs", "priority": "urgent", "category": "Technical Task", "assigned_to": ["c1"]},
    {"id": "t2", "status": "await-feedback", "title": "Review login", "priority": "low", "category": "User Story"},
    {"id": "t3", "status": "done", "title": "Ship release", "priority": "medium", "category": "User Story"}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// TestRunPathsCommand verifies resolved paths are printed for the requested app.
func TestRunPathsCommand(t *testing.T) {
	clearJoinEnv(t)
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--app", "jointest", "--dev=false", "paths"}, &out, nil); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"app: jointest", "dev_mode: false", "config: ", "db: ", "log_dir: ", "snapshot_dir: "} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output, got %q", want, got)
		}
	}
	if !strings.Contains(got, "jointest.db") {
		t.Fatalf("expected db named after app, got %q", got)
	}
}

// TestRunPathsHonorsEnvAppName verifies JOIN_APP_NAME seeds the --app default.
func TestRunPathsHonorsEnvAppName(t *testing.T) {
	clearJoinEnv(t)
	t.Setenv("JOIN_APP_NAME", "fromenv")
	t.Setenv("JOIN_DEV_MODE", "true")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"paths"}, &out, nil); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "app: fromenv") || !strings.Contains(out.String(), "fromenv-dev") {
		t.Fatalf("expected env app name in dev mode, got %q", out.String())
	}
}

// TestRunUnknownCommand verifies stray arguments are rejected.
func TestRunUnknownCommand(t *testing.T) {
	clearJoinEnv(t)
	if err := run(context.Background(), []string{"--dev=false", "nope"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

// TestRunImportExportRoundTrip verifies a snapshot survives import then export.
func TestRunImportExportRoundTrip(t *testing.T) {
	clearJoinEnv(t)
	args := storeArgs(t)
	in := writeSnapshot(t)

	if err := run(context.Background(), append(append([]string{}, args...), "import", "--in", in), nil, nil); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), append(append([]string{}, args...), "export"), &out, nil); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(out.Bytes(), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v, output %q", err, out.String())
	}
	if snap.Version != app.SnapshotVersion {
		t.Fatalf("expected version %q, got %q", app.SnapshotVersion, snap.Version)
	}
	if len(snap.Tasks) != 3 || len(snap.Contacts) != 1 {
		t.Fatalf("expected 3 tasks and 1 contact, got %d and %d", len(snap.Tasks), len(snap.Contacts))
	}
	titles := map[string]bool{}
	for _, task := range snap.Tasks {
		titles[task.Title] = true
	}
	for _, want := range []string{"Write docs", "Review login", "Ship release"} {
		if !titles[want] {
			t.Fatalf("expected task %q in export, got %#v", want, snap.Tasks)
		}
	}
}

// TestRunExportToFile verifies --out writes the snapshot and creates parent dirs.
func TestRunExportToFile(t *testing.T) {
	clearJoinEnv(t)
	args := storeArgs(t)
	outPath := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := run(context.Background(), append(args, "export", "--out", outPath), nil, nil); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), app.SnapshotVersion) {
		t.Fatalf("expected snapshot version in file, got %q", content)
	}
}

// TestRunImportRequiresInput verifies import refuses to run without --in.
func TestRunImportRequiresInput(t *testing.T) {
	clearJoinEnv(t)
	err := run(context.Background(), append(storeArgs(t), "import"), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "--in") {
		t.Fatalf("expected --in error, got %v", err)
	}
}

// TestRunImportRejectsInvalidSnapshot verifies validation errors surface.
func TestRunImportRejectsInvalidSnapshot(t *testing.T) {
	clearJoinEnv(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"version":"join.snapshot.v1","tasks":[{"id":"t1","title":"x","status":"archived","priority":"low"}]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	err := run(context.Background(), append(storeArgs(t), "import", "--in", path), nil, nil)
	if !errors.Is(err, app.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

// TestRunSummaryPrintsTable verifies the summary command renders column counts.
func TestRunSummaryPrintsTable(t *testing.T) {
	clearJoinEnv(t)
	args := storeArgs(t)
	if err := run(context.Background(), append(append([]string{}, args...), "import", "--in", writeSnapshot(t)), nil, nil); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), append(append([]string{}, args...), "summary"), &out, nil); err != nil {
		t.Fatalf("run(summary) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"To do", "Awaiting feedback", "Tasks in board", "Urgent"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in summary, got %q", want, got)
		}
	}
}

// TestRenderSummaryTable verifies deadline text and counts land in the table.
func TestRenderSummaryTable(t *testing.T) {
	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	got := renderSummaryTable(app.Summary{Greeting: "Good morning", Todo: 2, Done: 1, Total: 3, Urgent: 1, NextDeadline: &due})
	for _, want := range []string{"Good morning", "14.03.2026", "Upcoming Deadline", "Done"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in table, got %q", want, got)
		}
	}
	empty := renderSummaryTable(app.Summary{Greeting: "Good night"})
	if !strings.Contains(empty, "No deadline") || !strings.Contains(empty, "No tasks") {
		t.Fatalf("expected empty deadline placeholders, got %q", empty)
	}
}

// TestRunTUIUsesProgramFactory verifies the default command builds the board model.
func TestRunTUIUsesProgramFactory(t *testing.T) {
	clearJoinEnv(t)
	original := programFactory
	t.Cleanup(func() { programFactory = original })

	var got tea.Model
	programFactory = func(m tea.Model) program {
		got = m
		return &fakeProgram{model: m}
	}
	for _, args := range [][]string{
		storeArgs(t),
		append(storeArgs(t), "tui", "--input", "touch"),
		append(storeArgs(t), "--input", "pointer"),
	} {
		got = nil
		if err := run(context.Background(), args, nil, nil); err != nil {
			t.Fatalf("run(%v) error = %v", args, err)
		}
		if _, ok := got.(tui.Model); !ok {
			t.Fatalf("expected tui.Model for %v, got %T", args, got)
		}
	}
}

// TestRunTUIPropagatesProgramError verifies program failures are wrapped.
func TestRunTUIPropagatesProgramError(t *testing.T) {
	clearJoinEnv(t)
	original := programFactory
	t.Cleanup(func() { programFactory = original })
	boom := errors.New("terminal gone")
	programFactory = func(m tea.Model) program {
		return &fakeProgram{model: m, err: boom}
	}
	if err := run(context.Background(), storeArgs(t), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestRunTUIRejectsUnknownInput verifies --input is validated.
func TestRunTUIRejectsUnknownInput(t *testing.T) {
	clearJoinEnv(t)
	original := programFactory
	t.Cleanup(func() { programFactory = original })
	programFactory = func(m tea.Model) program {
		t.Fatal("program should not start")
		return nil
	}
	err := run(context.Background(), append(storeArgs(t), "--input", "stylus"), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "stylus") {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

// TestRunServeWiresDependencies verifies flags override config and the board is wired.
func TestRunServeWiresDependencies(t *testing.T) {
	clearJoinEnv(t)
	original := serveFunc
	t.Cleanup(func() { serveFunc = original })

	var (
		gotCfg  server.Config
		gotDeps server.Dependencies
	)
	serveFunc = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
		gotCfg = cfg
		gotDeps = deps
		return deps.Ready(ctx)
	}
	args := append(storeArgs(t), "serve", "--bind", "127.0.0.1:0", "--allow-anonymous")
	if err := run(context.Background(), args, nil, nil); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:0" || !gotCfg.AllowAnonymous {
		t.Fatalf("unexpected server config %#v", gotCfg)
	}
	if gotCfg.APIEndpoint != "/api/v1" || gotCfg.MCPEndpoint != "/mcp" {
		t.Fatalf("expected config endpoints, got %#v", gotCfg)
	}
	if gotDeps.Board == nil || gotDeps.Logger == nil {
		t.Fatalf("expected board and logger dependencies, got %#v", gotDeps)
	}
}

// TestRunRejectsInvalidConfig verifies config validation errors stop startup.
func TestRunRejectsInvalidConfig(t *testing.T) {
	clearJoinEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[drag]\ninput = \"stylus\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	err := run(context.Background(), []string{"--dev=false", "--config", cfgPath, "--db", filepath.Join(dir, "join.db"), "summary"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "drag.input") {
		t.Fatalf("expected drag.input validation error, got %v", err)
	}
}

// TestRuntimeLoggerDevFileSink verifies dev mode writes logfmt lines to the dev log.
func TestRuntimeLoggerDevFileSink(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC) }
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "join", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, "", now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	wantPath := filepath.Join(dir, "join-20260203.log")
	if logger.DevLogPath() != wantPath {
		t.Fatalf("expected dev log path %q, got %q", wantPath, logger.DevLogPath())
	}

	logger.SetConsoleEnabled(false)
	logger.Info("card moved", "task", "t1")
	if console.Len() != 0 {
		t.Fatalf("expected muted console, got %q", console.String())
	}
	if logger.Logger() != logger.fileSink {
		t.Fatal("expected Logger() to return the file sink while the console is muted")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "card moved") || !strings.Contains(string(content), "task=t1") {
		t.Fatalf("expected logfmt entry, got %q", content)
	}
}

// TestRuntimeLoggerConsoleOnly verifies the file sink stays off outside dev mode.
func TestRuntimeLoggerConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "join", false, config.LoggingConfig{
		Level:   "info",
		DevFile: config.DevFileConfig{Enabled: true, Dir: t.TempDir()},
	}, "", nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	if logger.DevLogPath() != "" {
		t.Fatalf("expected no dev log outside dev mode, got %q", logger.DevLogPath())
	}
	logger.Debug("hidden")
	logger.Warn("visible")
	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "visible") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	if logger.Logger() != logger.consoleSink {
		t.Fatal("expected Logger() to return the console sink")
	}

	logger.SetConsoleEnabled(false)
	if logger.Logger() == nil {
		t.Fatal("expected a discarding logger when every sink is muted")
	}
	if _, err := newRuntimeLogger(nil, "join", false, config.LoggingConfig{Level: "loud"}, "", nil); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

// TestDevLogFilePathFallsBackToLogDir verifies an empty configured dir uses the platform log dir.
func TestDevLogFilePathFallsBackToLogDir(t *testing.T) {
	logDir := t.TempDir()
	logger, err := newRuntimeLogger(nil, "my app", true, config.LoggingConfig{
		DevFile: config.DevFileConfig{Enabled: true},
	}, logDir, func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) })
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	if want := filepath.Join(logDir, "my-app-20260102.log"); logger.DevLogPath() != want {
		t.Fatalf("expected %q, got %q", want, logger.DevLogPath())
	}
}

// TestWorkspaceRootFrom verifies relative log dirs anchor at the nearest module root.
func TestWorkspaceRootFrom(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
	if got := workspaceRootFrom(""); got != "." {
		t.Fatalf("workspaceRootFrom(\"\") = %q, want \".\"", got)
	}
}

// TestSanitizeLogFileStem verifies unsafe characters are replaced.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"join":       "join",
		"  ":         "join",
		"team/board": "team-board",
		"a:b c":      "a-b-c",
		"/leading/":  "leading",
		`win\path`:   "win-path",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestFirstNonEmptyAndParseBoolEnv verifies the small flag helpers.
func TestFirstNonEmptyAndParseBoolEnv(t *testing.T) {
	if got := firstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Fatalf("firstNonEmpty() = %q, want b", got)
	}
	t.Setenv("JOIN_TEST_BOOL", "yes")
	if _, ok := parseBoolEnv("JOIN_TEST_BOOL"); ok {
		t.Fatal("expected unparsable bool to be ignored")
	}
	t.Setenv("JOIN_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("JOIN_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv() = %t, %t", v, ok)
	}
}
