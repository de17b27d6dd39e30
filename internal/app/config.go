package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sophialabs/wirecheck/internal/domain/match"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/filesystem"
)

// ConfigFileNames are looked up, in order, in the repository root.
var ConfigFileNames = []string{"wirecheck.yaml", "wirecheck.yml", "wirecheck.toml"}

// Config holds all configurable parameters for the application.
type Config struct {
	// Repo is the repository root every other path is relative to. It is set
	// from the command line, never from the file.
	Repo string `yaml:"-" toml:"-"`

	Client      ClientConfig      `yaml:"client" toml:"client"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Identifiers IdentifiersConfig `yaml:"identifiers" toml:"identifiers"`
	Report      ReportConfig      `yaml:"report" toml:"report"`
	Trace       TraceConfig       `yaml:"trace" toml:"trace"`
	Gate        string            `yaml:"gate" toml:"gate"`
	Log         LogConfig         `yaml:"log" toml:"log"`
	Watch       WatchConfig       `yaml:"watch" toml:"watch"`
	Serve       ServeConfig       `yaml:"serve" toml:"serve"`
	Cache       CacheConfig       `yaml:"cache" toml:"cache"`
}

type ClientConfig struct {
	Root       string        `yaml:"root" toml:"root"`
	AppDir     string        `yaml:"appDir" toml:"appDir"`
	APIPrefix  string        `yaml:"apiPrefix" toml:"apiPrefix"`
	Extensions []string      `yaml:"extensions" toml:"extensions"`
	Exclude    []string      `yaml:"exclude" toml:"exclude"`
	Lookahead  int           `yaml:"lookahead" toml:"lookahead"`
	Wrapper    WrapperConfig `yaml:"wrapper" toml:"wrapper"`
	Receivers  []string      `yaml:"receivers" toml:"receivers"`
}

type WrapperConfig struct {
	Name     string `yaml:"name" toml:"name"`
	File     string `yaml:"file" toml:"file"`
	BasePath string `yaml:"basePath" toml:"basePath"`
}

type ServerConfig struct {
	Root         string   `yaml:"root" toml:"root"`
	GlobalPrefix string   `yaml:"globalPrefix" toml:"globalPrefix"`
	Extensions   []string `yaml:"extensions" toml:"extensions"`
	Exclude      []string `yaml:"exclude" toml:"exclude"`
}

// IdentifiersConfig tunes which literal client segments count as runtime IDs.
// Rules are expressions over `segment`, e.g. `segment startsWith "usr_"`.
type IdentifiersConfig struct {
	HexMinLength int                `yaml:"hexMinLength" toml:"hexMinLength"`
	Prefixes     []match.PrefixRule `yaml:"prefixes" toml:"prefixes"`
	Rules        []string           `yaml:"rules" toml:"rules"`
}

// BuiltIn returns the built-in identifier rules this config selects.
func (c IdentifiersConfig) BuiltIn() match.IdentifierRules {
	return match.IdentifierRules{HexMinLength: c.HexMinLength, Prefixes: c.Prefixes}
}

type ReportConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	Name     string `yaml:"name" toml:"name"`
	JSON     bool   `yaml:"json" toml:"json"`
	JUnit    bool   `yaml:"junit" toml:"junit"`
	Template string `yaml:"template" toml:"template"`
}

type TraceConfig struct {
	Hops int `yaml:"hops" toml:"hops"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" toml:"debounce"`
	MinInterval time.Duration `yaml:"minInterval" toml:"minInterval"`
}

type ServeConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" toml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" toml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdownTimeout"`
	HistorySize     int           `yaml:"historySize" toml:"historySize"`
	RunInterval     time.Duration `yaml:"runInterval" toml:"runInterval"`
	RunBurst        int           `yaml:"runBurst" toml:"runBurst"`
}

type CacheConfig struct {
	Files int `yaml:"files" toml:"files"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	client := filesystem.DefaultClientOptions("client")
	rules := match.DefaultIdentifierRules()

	return Config{
		Repo: ".",
		Client: ClientConfig{
			Root:       "client",
			AppDir:     "app",
			APIPrefix:  client.APIPrefix,
			Extensions: append([]string{}, client.Extensions...),
			Exclude:    append([]string{}, client.Exclude...),
			Lookahead:  client.Lookahead,
			Wrapper: WrapperConfig{
				Name:     client.Wrapper.Name,
				File:     client.Wrapper.File,
				BasePath: client.Wrapper.BasePath,
			},
			Receivers: append([]string{}, client.Receivers...),
		},
		Server: ServerConfig{
			Root:       "server",
			Extensions: append([]string{}, filesystem.DefaultServerExtensions...),
			Exclude:    append([]string{}, filesystem.DefaultExclude...),
		},
		Identifiers: IdentifiersConfig{
			HexMinLength: rules.HexMinLength,
			Prefixes:     rules.Prefixes,
		},
		Report: ReportConfig{
			Dir:  "reports",
			Name: "contract-audit.md",
		},
		Trace: TraceConfig{Hops: 1},
		Log:   LogConfig{Level: "info", Format: "text"},
		Watch: WatchConfig{
			Debounce:    300 * time.Millisecond,
			MinInterval: 2 * time.Second,
		},
		Serve: ServeConfig{
			Addr:            ":8787",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			HistorySize:     100,
			RunInterval:     5 * time.Second,
			RunBurst:        2,
		},
		Cache: CacheConfig{Files: 2048},
	}
}

// LoadConfig returns the defaults overlaid with a config file. An explicit
// path must exist; otherwise the repository root is searched for one of
// ConfigFileNames and, when none is present, the defaults are returned
// as-is. The second result is the file that was read, if any.
func LoadConfig(repo, explicit string) (Config, string, error) {
	cfg := DefaultConfig()
	cfg.Repo = repo

	path := explicit
	if path == "" {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(repo, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := decodeConfig(path, data, &cfg); err != nil {
		return cfg, path, err
	}
	cfg.Repo = repo
	return cfg, path, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("failed to parse %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Client.Root) == "" {
		errs = append(errs, errors.New("client.root must not be empty"))
	}
	if strings.TrimSpace(c.Server.Root) == "" {
		errs = append(errs, errors.New("server.root must not be empty"))
	}
	if c.Client.Lookahead < 0 {
		errs = append(errs, fmt.Errorf("client.lookahead must not be negative, got %d", c.Client.Lookahead))
	}
	if c.Trace.Hops < 1 {
		errs = append(errs, fmt.Errorf("trace.hops must be at least 1, got %d", c.Trace.Hops))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if strings.TrimSpace(c.Report.Name) == "" {
		errs = append(errs, errors.New("report.name must not be empty"))
	}
	if c.Serve.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("serve.historySize must be at least 1, got %d", c.Serve.HistorySize))
	}
	return errors.Join(errs...)
}

// Path resolves a config path against the repository root.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Repo, p)
}
