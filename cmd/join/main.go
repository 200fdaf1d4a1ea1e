package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/evanschultz/join/internal/adapters/server"
	"github.com/evanschultz/join/internal/adapters/server/common"
	"github.com/evanschultz/join/internal/adapters/storage/docstore"
	"github.com/evanschultz/join/internal/adapters/storage/rediscache"
	"github.com/evanschultz/join/internal/adapters/storage/sqlite"
	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/auth"
	"github.com/evanschultz/join/internal/config"
	"github.com/evanschultz/join/internal/dnd"
	"github.com/evanschultz/join/internal/domain"
	"github.com/evanschultz/join/internal/platform"
	"github.com/evanschultz/join/internal/tui"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveFunc starts the HTTP transports; tests replace it.
var serveFunc = server.Run

func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// run executes one command line without fang's styling, for tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

// rootOptions are the persistent flags every command shares.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: "join", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("JOIN_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("JOIN_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	var tuiFlags tuiOptions
	root := &cobra.Command{
		Use:   "join",
		Short: "Kanban board with mouse and touch drag-and-drop",
		Long:  "Join is a kanban board for small teams. Cards move between To do, In progress, Await feedback and Done by dragging them with the mouse, a touch long press or the keyboard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, tuiFlags, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config TOML")
	pf.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	pf.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	bindTUIFlags(root, &tuiFlags)

	root.AddCommand(
		newTUICommand(opts, stderr),
		newServeCommand(opts, stderr),
		newPathsCommand(opts, stdout),
		newSummaryCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stderr),
	)
	return root
}

// tuiOptions override config values for one board session.
type tuiOptions struct {
	input  string
	viewer string
}

func bindTUIFlags(cmd *cobra.Command, o *tuiOptions) {
	cmd.Flags().StringVar(&o.input, "input", "", "drag input mode: pointer or touch (defaults to config)")
	cmd.Flags().StringVar(&o.viewer, "viewer", "", "contact id the summary greets")
}

func newTUICommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var flags tuiOptions
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, flags, stderr)
		},
	}
	bindTUIFlags(cmd, &flags)
	return cmd
}

func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		bind           string
		apiEndpoint    string
		mcpEndpoint    string
		allowAnonymous bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setupRuntime(cmd.Context(), opts, "serve", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := server.Config{
				HTTPBind:       firstNonEmpty(bind, rt.cfg.Server.Bind),
				APIEndpoint:    firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
				MCPEndpoint:    firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
				ServerName:     opts.appName,
				ServerVersion:  version,
				AllowAnonymous: allowAnonymous,
			}
			rt.logger.Info("command flow start", "command", "serve", "bind", cfg.HTTPBind)
			if err := serveFunc(cmd.Context(), cfg, server.Dependencies{
				Board:  common.NewAppServiceAdapter(rt.svc),
				Ready:  rt.ready,
				Logger: rt.logger.Logger(),
			}); err != nil {
				rt.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run server: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (defaults to config server.bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API base path")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path")
	cmd.Flags().BoolVar(&allowAnonymous, "allow-anonymous", false, "serve the API without bearer tokens")
	return cmd
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			_, _ = fmt.Fprintf(stdout, "snapshot_dir: %s\n", paths.SnapshotDir)
			return nil
		},
	}
}

func newSummaryCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the board summary as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setupRuntime(cmd.Context(), opts, "summary", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			s, err := rt.svc.Summary(cmd.Context(), assignee)
			if err != nil {
				return fmt.Errorf("load summary: %w", err)
			}
			_, err = fmt.Fprintln(stdout, renderSummaryTable(s))
			return err
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "limit the deadline lookup to one contact id")
	return cmd
}

// renderSummaryTable lays the dashboard counters out as a bordered table.
func renderSummaryTable(s app.Summary) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Board", "Tasks").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	t.Row(domain.StatusTodo.Label(), strconv.Itoa(s.Todo))
	t.Row(domain.StatusInProgress.Label(), strconv.Itoa(s.InProgress))
	t.Row(domain.StatusAwaitFeedback.Label(), strconv.Itoa(s.AwaitFeedback))
	t.Row(domain.StatusDone.Label(), strconv.Itoa(s.Done))
	t.Row("Tasks in board", strconv.Itoa(s.Total))
	t.Row("Urgent", strconv.Itoa(s.Urgent))
	t.Row(s.DeadlineCaption(), s.DeadlineLabel())
	return s.Greeting + "\n" + t.String()
}

func newExportCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of tasks and contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setupRuntime(cmd.Context(), opts, "export", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			if outPath == "auto" {
				if err := rt.paths.EnsureDirs(); err != nil {
					return fmt.Errorf("prepare snapshot dir: %w", err)
				}
				outPath = filepath.Join(rt.paths.SnapshotDir, fmt.Sprintf("%s-%s.json", sanitizeLogFileStem(opts.appName), time.Now().UTC().Format("20060102-150405")))
			}
			rt.logger.Info("command flow start", "command", "export", "out", outPath)
			if err := runExport(cmd.Context(), rt.svc, outPath, stdout); err != nil {
				rt.logger.Error("command flow failed", "command", "export", "err", err)
				return fmt.Errorf("run export command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "export")
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout, 'auto' for the snapshot dir)")
	return cmd
}

func newImportCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON snapshot into the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			rt, err := setupRuntime(cmd.Context(), opts, "import", stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("command flow start", "command", "import", "in", inPath)
			if err := runImport(cmd.Context(), rt.svc, inPath); err != nil {
				rt.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("run import command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "import")
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// runTUI opens the board and blocks until the program exits.
func runTUI(ctx context.Context, opts *rootOptions, flags tuiOptions, stderr io.Writer) error {
	rt, err := setupRuntime(ctx, opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	mode := rt.cfg.DragMode()
	switch strings.ToLower(strings.TrimSpace(flags.input)) {
	case "":
	case string(config.InputPointer):
		mode = dnd.ModePointer
	case string(config.InputTouch):
		mode = dnd.ModeTouch
	default:
		return fmt.Errorf("invalid --input %q: want pointer or touch", flags.input)
	}
	dragOpts, err := rt.cfg.DragOptions()
	if err != nil {
		return fmt.Errorf("drag options: %w", err)
	}
	dragOpts.Logger = rt.logger.Logger()

	m := tui.NewModel(
		rt.svc,
		tui.WithDragOptions(dragOpts),
		tui.WithInputMode(mode),
		tui.WithShowSubtasks(rt.cfg.Board.ShowSubtasks),
		tui.WithLogger(rt.logger.Logger()),
		tui.WithViewer(flags.viewer),
	)
	rt.logger.Info("starting tui program loop", "input", mode)
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// runtimeEnv is everything one command needs once config is resolved.
type runtimeEnv struct {
	paths   platform.Paths
	cfg     config.Config
	logger  *runtimeLogger
	svc     *app.Service
	ready   func(context.Context) error
	closers []func() error
}

// Close releases storage handles in reverse order, then the log sink.
func (r *runtimeEnv) Close() {
	if r == nil {
		return
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close failed", "err", err)
		}
	}
	r.closers = nil
	if err := r.logger.Close(); err != nil && r.logger.shouldLogToSink(r.logger.consoleSink) {
		r.logger.consoleSink.Warn("close runtime log sink", "err", err)
	}
}

// setupRuntime resolves paths and config, builds the logger and opens storage.
func setupRuntime(ctx context.Context, opts *rootOptions, command string, stderr io.Writer) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = firstNonEmpty(strings.TrimSpace(os.Getenv("JOIN_CONFIG")), paths.ConfigPath)
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("JOIN_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if secret := strings.TrimSpace(os.Getenv("JOIN_AUTH_SECRET")); secret != "" {
		cfg.Auth.Secret = secret
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, paths.LogDir, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// The board owns the terminal; runtime logs only reach the dev-file sink.
		logger.SetConsoleEnabled(false)
	}
	rt := &runtimeEnv{paths: paths, cfg: cfg, logger: logger}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, ready, closers, err := openRepository(cfg, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = closers
	rt.ready = ready

	secret := cfg.Auth.Secret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		if command == "serve" {
			logger.Warn("auth.secret not configured; tokens will not survive a restart")
		}
	}
	issuer, err := auth.NewIssuer(secret, cfg.Auth.TokenTTL.Duration, nil)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("configure token issuer: %w", err)
	}
	rt.svc = app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		Hasher:            auth.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		Tokens:            issuer,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})
	logger.Debug("application service initialized", "store", cfg.Store.Backend)
	if err := ready(ctx); err != nil {
		logger.Warn("store readiness probe failed", "err", err)
	}
	return rt, nil
}

// openRepository builds the configured store, wrapped in the redis cache when one is set.
func openRepository(cfg config.Config, logger *runtimeLogger) (app.Repository, func(context.Context) error, []func() error, error) {
	var (
		repo    app.Repository
		probes  []func(context.Context) error
		closers []func() error
	)
	switch cfg.Store.Backend {
	case config.StoreDocStore:
		logger.Info("opening document store", "base_url", cfg.Store.BaseURL)
		store, err := docstore.New(docstore.Options{
			BaseURL:   cfg.Store.BaseURL,
			AuthToken: cfg.Store.AuthToken,
			Timeout:   cfg.Store.Timeout.Duration,
			Logger:    logger.Logger(),
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open document store: %w", err)
		}
		repo = store
		probes = append(probes, store.Ping)
	default:
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		store, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
			return nil, nil, nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		repo = store
		probes = append(probes, store.Ping)
		closers = append(closers, store.Close)
		logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
	}

	if addr := strings.TrimSpace(cfg.Cache.RedisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		cache := rediscache.New(repo, client, cfg.Cache.TTL.Duration, cfg.Cache.Prefix)
		repo = cache
		probes = append(probes, cache.Ping)
		closers = append(closers, client.Close)
		logger.Info("redis cache enabled", "addr", addr, "ttl", cfg.Cache.TTL.Duration)
	}

	ready := func(ctx context.Context) error {
		for _, probe := range probes {
			if err := probe(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return repo, ready, closers, nil
}

func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// randomSecret returns a 32-byte hex token signing key for runs without one configured.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	fileSink       *charmLog.Logger
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger builds the sinks. The dev-file sink only exists in dev mode;
// an empty configured dir falls back to logDir.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, logDir string, now func() time.Time) (*runtimeLogger, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(firstNonEmpty(cfg.DevFile.Dir, logDir), appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.fileSink = fileLogger
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// Logger returns a single charm logger for packages that take one. While the
// console is muted it is the file sink, or a discarding logger without one.
func (l *runtimeLogger) Logger() *charmLog.Logger {
	switch {
	case l == nil:
		return charmLog.New(io.Discard)
	case l.consoleEnabled:
		return l.consoleSink
	case l.fileSink != nil:
		return l.fileSink
	default:
		return charmLog.New(io.Discard)
	}
}

func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	err := l.closeFile()
	l.closeFile = nil
	return err
}

func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Log(level, msg, keyvals...)
		}
	}
}

func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals...) }
func (l *runtimeLogger) Info(msg string, keyvals ...any)  { l.log(charmLog.InfoLevel, msg, keyvals...) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any)  { l.log(charmLog.WarnLevel, msg, keyvals...) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals...) }

// devLogFilePath resolves the per-day dev log file. Relative dirs hang off the
// nearest workspace root.
func devLogFilePath(dir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(dir)
	if baseDir == "" {
		baseDir = ".join/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileName := fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem turns an app name into a safe file-name segment.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return "join"
	}
	return stem
}
