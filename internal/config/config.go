package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Version is the current clinote release.
const Version = "0.3.0"

// DefaultModel is the model used when CLINOTE_MODEL is unset.
const DefaultModel = "emilyalsentzer/Bio_ClinicalBERT"

// Config holds all clinote configuration.
type Config struct {
	Model    ModelConfig   `yaml:"model"`
	Hub      HubConfig     `yaml:"hub"`
	Runtime  RuntimeConfig `yaml:"runtime"`
	Server   ServerConfig  `yaml:"server"`
	LogLevel string        `yaml:"log_level"`
}

// ModelConfig names the classifier to load.
type ModelConfig struct {
	ID       string   `yaml:"id"`       // hub identifier or local directory
	Revision string   `yaml:"revision"` // branch, tag or commit
	Files    []string `yaml:"files"`    // glob patterns of files to fetch
}

// HubConfig holds model hub and cache settings.
type HubConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	CacheDir string        `yaml:"cache_dir"`
	Offline  bool          `yaml:"offline"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RuntimeConfig holds ONNX Runtime settings.
type RuntimeConfig struct {
	LibPath   string `yaml:"lib_path"`
	Threads   int    `yaml:"threads"`     // 0 = physical cores
	MaxSeqLen int    `yaml:"max_seq_len"` // 0 = model's own limit
}

// ServerConfig holds web UI settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Model: ModelConfig{ID: DefaultModel},
		Hub: HubConfig{
			Endpoint: "https://huggingface.co",
			CacheDir: DefaultCacheDir(),
			Timeout:  10 * time.Minute,
		},
		Server:   ServerConfig{Listen: "127.0.0.1:7860"},
		LogLevel: "info",
	}
}

// LoadFile layers defaults, the YAML file at path, and the environment, in
// that order. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: %s: %w", p, err)
		}
	}
	return nil
}

// DefaultCacheDir is $XDG_CACHE_HOME/clinote or the platform equivalent.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".clinote-cache"
	}
	return filepath.Join(dir, "clinote")
}

func applyEnv(cfg *Config) {
	cfg.Model.ID = getenv("CLINOTE_MODEL", cfg.Model.ID)
	cfg.Model.Revision = getenv("CLINOTE_REVISION", cfg.Model.Revision)
	cfg.Model.Files = getenvList("CLINOTE_FILES", cfg.Model.Files)

	cfg.Hub.Endpoint = getenv("CLINOTE_HUB_ENDPOINT", cfg.Hub.Endpoint)
	cfg.Hub.Token = getenv("CLINOTE_HUB_TOKEN", cfg.Hub.Token)
	cfg.Hub.CacheDir = getenv("CLINOTE_CACHE_DIR", cfg.Hub.CacheDir)
	cfg.Hub.Offline = getenvBool("CLINOTE_OFFLINE", cfg.Hub.Offline)
	cfg.Hub.Timeout = getenvDuration("CLINOTE_HTTP_TIMEOUT", cfg.Hub.Timeout)

	cfg.Runtime.LibPath = getenv("CLINOTE_ORT_LIB", cfg.Runtime.LibPath)
	cfg.Runtime.Threads = getenvInt("CLINOTE_THREADS", cfg.Runtime.Threads)
	cfg.Runtime.MaxSeqLen = getenvInt("CLINOTE_MAX_SEQ_LEN", cfg.Runtime.MaxSeqLen)

	cfg.Server.Listen = getenv("CLINOTE_LISTEN", cfg.Server.Listen)
	cfg.LogLevel = getenv("CLINOTE_LOG_LEVEL", cfg.LogLevel)
}

// Validate checks the configuration for errors. Returns all problems found.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Model.ID) == "" {
		errs = append(errs, errors.New("model id is required (CLINOTE_MODEL)"))
	}
	for _, p := range c.Model.Files {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid file pattern %q (CLINOTE_FILES)", p))
		}
	}

	if c.Hub.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http timeout must be >= 0, got %v", c.Hub.Timeout))
	}
	if c.Hub.CacheDir == "" && !isDir(c.Model.ID) {
		errs = append(errs, errors.New("cache dir is required for hub models (CLINOTE_CACHE_DIR)"))
	}

	if c.Runtime.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must be >= 0, got %d", c.Runtime.Threads))
	}
	if c.Runtime.MaxSeqLen != 0 && c.Runtime.MaxSeqLen < 8 {
		errs = append(errs, fmt.Errorf("max seq len must be 0 or >= 8, got %d", c.Runtime.MaxSeqLen))
	}
	if c.Runtime.LibPath != "" {
		if _, err := os.Stat(c.Runtime.LibPath); err != nil {
			errs = append(errs, fmt.Errorf("onnxruntime library: %w", err))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getenvList splits a comma-separated value, dropping empty items.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
