package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/join/internal/dnd"
	"github.com/evanschultz/join/internal/domain"
)

type StoreBackend string

const (
	StoreSQLite   StoreBackend = "sqlite"
	StoreDocStore StoreBackend = "docstore"
)

type InputMode string

const (
	InputPointer InputMode = "pointer"
	InputTouch   InputMode = "touch"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Store    StoreConfig    `toml:"store"`
	Cache    CacheConfig    `toml:"cache"`
	Drag     DragConfig     `toml:"drag"`
	Board    BoardConfig    `toml:"board"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type StoreConfig struct {
	Backend   StoreBackend `toml:"backend"`
	BaseURL   string       `toml:"base_url"`
	AuthToken string       `toml:"auth_token"`
	Timeout   Duration     `toml:"timeout"`
}

// CacheConfig enables the redis read cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"`
	TTL       Duration `toml:"ttl"`
}

type DragConfig struct {
	Input            InputMode `toml:"input"`
	LongPressMS      int       `toml:"long_press_ms"`
	PlaceholderWidth int       `toml:"placeholder_width"`
	FailurePolicy    string    `toml:"failure_policy"`
}

type BoardConfig struct {
	EmptyMessages map[string]string `toml:"empty_messages"`
	ShowSubtasks  bool              `toml:"show_subtasks"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type AuthConfig struct {
	Secret            string   `toml:"secret"`
	TokenTTL          Duration `toml:"token_ttl"`
	MinPasswordLength int      `toml:"min_password_length"`
	BcryptCost        int      `toml:"bcrypt_cost"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the dev-mode logfmt sink. Relative dirs resolve
// against the nearest workspace root.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Duration decodes TOML strings such as "30s" or "12h".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Store: StoreConfig{
			Backend: StoreSQLite,
			Timeout: Duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Prefix: "join",
			TTL:    Duration{30 * time.Second},
		},
		Drag: DragConfig{
			Input:            InputPointer,
			LongPressMS:      int(dnd.DefaultLongPress / time.Millisecond),
			PlaceholderWidth: dnd.DefaultPlaceholderWidth,
			FailurePolicy:    string(dnd.FailureNotify),
		},
		Board: BoardConfig{
			EmptyMessages: map[string]string{},
			ShowSubtasks:  true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Auth: AuthConfig{
			TokenTTL:          Duration{24 * time.Hour},
			MinPasswordLength: 8,
			BcryptCost:        10,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".join/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreSQLite, "":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required")
		}
	case StoreDocStore:
		u, err := url.Parse(strings.TrimSpace(c.Store.BaseURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("store.base_url must be an http(s) url: %q", c.Store.BaseURL)
		}
	default:
		return fmt.Errorf("invalid store.backend: %q", c.Store.Backend)
	}
	if c.Store.Timeout.Duration < 0 {
		return errors.New("store.timeout must be >= 0")
	}

	if addr := strings.TrimSpace(c.Cache.RedisAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid cache.redis_addr %q: %w", addr, err)
		}
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New("cache.ttl must be >= 0")
	}

	switch c.Drag.Input {
	case InputPointer, InputTouch:
	default:
		return fmt.Errorf("invalid drag.input: %q", c.Drag.Input)
	}
	if c.Drag.LongPressMS <= 0 {
		return errors.New("drag.long_press_ms must be > 0")
	}
	if c.Drag.PlaceholderWidth <= 0 {
		return errors.New("drag.placeholder_width must be > 0")
	}
	if _, err := dnd.ParseFailurePolicy(c.Drag.FailurePolicy); err != nil {
		return fmt.Errorf("drag.failure_policy: %w", err)
	}

	for key := range c.Board.EmptyMessages {
		if _, err := domain.ParseStatus(key); err != nil {
			return fmt.Errorf("board.empty_messages references unknown status %q", key)
		}
	}

	if _, _, err := net.SplitHostPort(strings.TrimSpace(c.Server.Bind)); err != nil {
		return fmt.Errorf("invalid server.bind %q: %w", c.Server.Bind, err)
	}
	for name, endpoint := range map[string]string{"server.api_endpoint": c.Server.APIEndpoint, "server.mcp_endpoint": c.Server.MCPEndpoint} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	if c.Auth.TokenTTL.Duration <= 0 {
		return errors.New("auth.token_ttl must be > 0")
	}
	if c.Auth.MinPasswordLength < 1 {
		return errors.New("auth.min_password_length must be >= 1")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be within 4..31, got %d", c.Auth.BcryptCost)
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// DragOptions converts the drag and board sections into engine options.
func (c Config) DragOptions() (dnd.Options, error) {
	policy, err := dnd.ParseFailurePolicy(c.Drag.FailurePolicy)
	if err != nil {
		return dnd.Options{}, err
	}
	messages := make(map[domain.Status]string, len(c.Board.EmptyMessages))
	for key, msg := range c.Board.EmptyMessages {
		status, err := domain.ParseStatus(key)
		if err != nil {
			return dnd.Options{}, err
		}
		messages[status] = msg
	}
	return dnd.Options{
		PlaceholderWidth: c.Drag.PlaceholderWidth,
		LongPress:        time.Duration(c.Drag.LongPressMS) * time.Millisecond,
		FailurePolicy:    policy,
		EmptyMessages:    messages,
	}, nil
}

// DragMode reports the input mode the board should translate mouse events into.
func (c Config) DragMode() dnd.Mode {
	if c.Drag.Input == InputTouch {
		return dnd.ModeTouch
	}
	return dnd.ModePointer
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
