package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/consts"
	"github.com/pseudomuto/adpt/pkg/credentials"
	"github.com/pseudomuto/adpt/pkg/dotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvBaseURL overrides the configured platform URL.
	EnvBaseURL = "ADAPTIVE_BASE_URL"

	// EnvAPIKey supplies the API key, taking precedence over the OS keyring.
	EnvAPIKey = "ADAPTIVE_API_KEY"

	// EnvDefaultUseCase overrides the configured default use case.
	EnvDefaultUseCase = "DEFAULT_USE_CASE"

	// EnvConfigPath points at an alternative config file.
	EnvConfigPath = "ADPT_CONFIG"
)

type (
	// File is the persisted configuration written by `adpt config`.
	//
	// The API key is deliberately absent; it lives in the OS keyring or the
	// environment.
	File struct {
		// BaseURL is the root URL of the Adaptive platform, e.g. https://app.adaptive.ml
		BaseURL string `yaml:"adaptive_base_url,omitempty"`

		// DefaultUseCase is used by commands when --usecase isn't given
		DefaultUseCase string `yaml:"default_use_case,omitempty"`
	}

	// Config is the effective configuration after merging the config file, the
	// .env file, the environment and the OS keyring.
	Config struct {
		// BaseURL is the root URL of the Adaptive platform
		BaseURL string

		// APIKey authenticates every request to the platform
		APIKey string

		// DefaultUseCase is used when a command isn't given --usecase
		DefaultUseCase string

		// Path is the config file this configuration was read from (it may not exist)
		Path string
	}

	// Options controls where Load looks for configuration.
	Options struct {
		// Path of the config file. Defaults to $ADPT_CONFIG, then DefaultPath().
		Path string

		// DotEnv is the .env file to load before reading the environment.
		// Defaults to ".env" in the working directory.
		DotEnv string

		// Keys is consulted for the API key when $ADAPTIVE_API_KEY is unset.
		Keys credentials.Store
	}
)

// DefaultPath returns the per-user config file location,
// $XDG_CONFIG_HOME/adpt/config.yaml on Linux and the platform equivalent
// elsewhere.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, consts.AppName, consts.ConfigFileName)
}

// LoadFile parses a config file from the provided io.Reader. Empty input yields
// an empty File.
//
// Example:
//
//	f, err := config.LoadFile(strings.NewReader(`
//	adaptive_base_url: https://app.adaptive.ml
//	default_use_case: support-bot
//	`))
//	if err != nil {
//		return err
//	}
//
//	fmt.Println(f.DefaultUseCase)
func LoadFile(r io.Reader) (*File, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	f.BaseURL = strings.TrimSpace(f.BaseURL)
	f.DefaultUseCase = strings.TrimSpace(f.DefaultUseCase)
	return &f, nil
}

// LoadFilePath loads the config file at path. A missing file is reported with
// an error wrapping os.ErrNotExist.
func LoadFilePath(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadFile(f)
}

// Write encodes the file as YAML.
func (f *File) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	return errors.Wrap(enc.Close(), "failed to marshal config")
}

// Save writes the file to path, creating parent directories as needed.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open file: %s", path)
	}

	if err := f.Write(out); err != nil {
		_ = out.Close()
		return err
	}

	return errors.Wrapf(out.Close(), "failed to write file: %s", path)
}

// Load resolves the effective configuration.
//
// Sources, lowest precedence first:
//   - the config file (missing is fine)
//   - variables from .env that aren't already in the environment
//   - ADAPTIVE_BASE_URL and DEFAULT_USE_CASE
//
// The API key comes from ADAPTIVE_API_KEY, otherwise from opts.Keys. Values
// that can't be resolved are left empty; use Validate before talking to the
// platform.
func Load(opts Options) (*Config, error) {
	dotenvPath := opts.DotEnv
	if dotenvPath == "" {
		dotenvPath = consts.DotEnvFileName
	}

	if err := dotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	path := opts.Path
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{Path: path}

	f, err := LoadFilePath(path)
	switch {
	case err == nil:
		cfg.BaseURL = f.BaseURL
		cfg.DefaultUseCase = f.DefaultUseCase
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("No config file found", "path", path)
	default:
		return nil, err
	}

	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvDefaultUseCase)); v != "" {
		cfg.DefaultUseCase = v
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	if cfg.APIKey == "" && opts.Keys != nil {
		key, err := opts.Keys.Get()
		switch {
		case err == nil:
			cfg.APIKey = key
		case errors.Is(err, credentials.ErrNotFound):
		default:
			slog.Debug("Unable to read API key from keyring", "err", err)
		}
	}

	return cfg, nil
}

// Validate reports whether the configuration is sufficient to reach the
// platform.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.Errorf("no Adaptive base URL configured: run `adpt config` or set %s", EnvBaseURL)
	}

	if c.APIKey == "" {
		return errors.Errorf(
			"API key not specified via %s nor present in OS keyring: run `adpt set-api-key`",
			EnvAPIKey,
		)
	}

	return nil
}

// UseCase returns the use case to operate on: the explicit value when given,
// otherwise the configured default.
func (c *Config) UseCase(explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}

	if c.DefaultUseCase != "" {
		return c.DefaultUseCase, nil
	}

	return "", errors.Errorf(
		"no use case specified: pass --usecase, set %s or run `adpt config`",
		EnvDefaultUseCase,
	)
}
