// Package config loads svcinstall settings from defaults, a YAML file and
// SVCINSTALL_* environment variables, in increasing order of precedence.
// Command-line flags bound to the same keys take precedence over all three.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	svcinstall "github.com/axondata/go-svcinstall"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SVCINSTALL"

// Configuration keys
const (
	KeyName           = "name"
	KeyInterpreter    = "interpreter"
	KeyScript         = "script"
	KeyArgs           = "args"
	KeyManager        = "manager"
	KeyBackend        = "backend"
	KeyReplace        = "replace"
	KeyDryRun         = "dry_run"
	KeyOutput         = "output"
	KeySearchPath     = "search_path"
	KeyUseSudo        = "use_sudo"
	KeySudoCommand    = "sudo_command"
	KeyQuoteStyle     = "quote_style"
	KeyUnitDir        = "unit_dir"
	KeyServiceDir     = "service_dir"
	KeyStartTimeout   = "start_timeout"
	KeyCommandTimeout = "command_timeout"
	KeySettleAttempts = "settle.attempts"
	KeySettleInterval = "settle.interval"
	KeySettleMax      = "settle.max_interval"
	KeySettleTimeout  = "settle.timeout"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// Settle configures state polling after a start request
type Settle struct {
	Attempts    int           `mapstructure:"attempts" yaml:"attempts" json:"attempts"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	MaxInterval time.Duration `mapstructure:"max_interval" yaml:"max_interval" json:"max_interval"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// Config is the effective svcinstall configuration
type Config struct {
	Name           string        `mapstructure:"name" yaml:"name" json:"name"`
	Interpreter    string        `mapstructure:"interpreter" yaml:"interpreter" json:"interpreter"`
	Script         string        `mapstructure:"script" yaml:"script" json:"script"`
	Args           []string      `mapstructure:"args" yaml:"args" json:"args"`
	Manager        string        `mapstructure:"manager" yaml:"manager" json:"manager"`
	Backend        string        `mapstructure:"backend" yaml:"backend" json:"backend"`
	Replace        bool          `mapstructure:"replace" yaml:"replace" json:"replace"`
	DryRun         bool          `mapstructure:"dry_run" yaml:"dry_run" json:"dry_run"`
	Output         string        `mapstructure:"output" yaml:"output" json:"output"`
	SearchPath     string        `mapstructure:"search_path" yaml:"search_path" json:"search_path"`
	UseSudo        bool          `mapstructure:"use_sudo" yaml:"use_sudo" json:"use_sudo"`
	SudoCommand    string        `mapstructure:"sudo_command" yaml:"sudo_command" json:"sudo_command"`
	QuoteStyle     string        `mapstructure:"quote_style" yaml:"quote_style" json:"quote_style"`
	UnitDir        string        `mapstructure:"unit_dir" yaml:"unit_dir" json:"unit_dir"`
	ServiceDir     string        `mapstructure:"service_dir" yaml:"service_dir" json:"service_dir"`
	StartTimeout   time.Duration `mapstructure:"start_timeout" yaml:"start_timeout" json:"start_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout" json:"command_timeout"`
	Settle         Settle        `mapstructure:"settle" yaml:"settle" json:"settle"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat      string        `mapstructure:"log_format" yaml:"log_format" json:"log_format"`

	// File is the configuration file that was read, if any
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyName, svcinstall.DefaultServiceName)
	v.SetDefault(KeyInterpreter, svcinstall.DefaultInterpreter)
	v.SetDefault(KeyScript, "")
	v.SetDefault(KeyArgs, []string{svcinstall.ScriptPlaceholder})
	v.SetDefault(KeyManager, "")
	v.SetDefault(KeyBackend, "")
	v.SetDefault(KeyReplace, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyOutput, "text")
	v.SetDefault(KeySearchPath, "")
	v.SetDefault(KeyUseSudo, false)
	v.SetDefault(KeySudoCommand, svcinstall.DefaultSudoCommand)
	v.SetDefault(KeyQuoteStyle, "")
	v.SetDefault(KeyUnitDir, svcinstall.DefaultUnitDir)
	v.SetDefault(KeyServiceDir, svcinstall.DefaultRunitServiceDir)
	v.SetDefault(KeyStartTimeout, svcinstall.DefaultStartTimeout)
	v.SetDefault(KeyCommandTimeout, svcinstall.DefaultCommandTimeout)
	v.SetDefault(KeySettleAttempts, svcinstall.DefaultSettleAttempts)
	v.SetDefault(KeySettleInterval, svcinstall.DefaultSettleInterval)
	v.SetDefault(KeySettleMax, svcinstall.DefaultSettleMaxInterval)
	v.SetDefault(KeySettleTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// SearchPaths returns the configuration files tried when none is given
func SearchPaths() []string {
	paths := []string{"svcinstall.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".svcinstall", "config.yaml"))
	}
	return paths
}

// Load reads the configuration into v and decodes it. An explicit file
// must exist; otherwise the first existing file from SearchPaths is used.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		for _, candidate := range SearchPaths() {
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				file = candidate
				break
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be decoded into a wrong type but can
// still be wrong
func (c *Config) Validate() error {
	var errs []error
	if _, err := svcinstall.ParseBackendType(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := svcinstall.ParseOutputFormat(c.Output); err != nil {
		errs = append(errs, err)
	}
	if _, err := svcinstall.ParseQuoteStyle(c.QuoteStyle); err != nil {
		errs = append(errs, err)
	}
	if c.StartTimeout < 0 || c.CommandTimeout < 0 || c.Settle.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeouts must not be negative", svcinstall.ErrInvalidArgument))
	}
	if c.Settle.Attempts < 0 {
		errs = append(errs, fmt.Errorf("%w: settle.attempts must not be negative", svcinstall.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

// BackendType returns the configured backend, the memory backend for dry runs
func (c *Config) BackendType() svcinstall.BackendType {
	if c.DryRun {
		return svcinstall.BackendMemory
	}
	bt, err := svcinstall.ParseBackendType(c.Backend)
	if err != nil {
		return svcinstall.BackendUnknown
	}
	return bt
}

// BackendConfig returns the backend settings; ManagerPath is left for the
// installer to resolve
func (c *Config) BackendConfig() svcinstall.BackendConfig {
	return svcinstall.BackendConfig{
		Type:           c.BackendType(),
		UseSudo:        c.UseSudo,
		SudoCommand:    c.SudoCommand,
		CommandTimeout: c.CommandTimeout,
		QuoteStyle:     c.QuoteStyle,
		UnitDir:        c.UnitDir,
		ServiceDir:     c.ServiceDir,
	}
}

// InstallSpec returns the service to install
func (c *Config) InstallSpec() svcinstall.InstallSpec {
	return svcinstall.InstallSpec{
		Name:        c.Name,
		Manager:     c.Manager,
		Interpreter: c.Interpreter,
		Script:      c.Script,
		Args:        append([]string(nil), c.Args...),
	}
}

// Poller returns the settle poller
func (c *Config) Poller() svcinstall.Poller {
	return svcinstall.Poller{
		Attempts:    c.Settle.Attempts,
		Interval:    c.Settle.Interval,
		MaxInterval: c.Settle.MaxInterval,
		Timeout:     c.Settle.Timeout,
	}
}

// Policy returns the existing-record policy
func (c *Config) Policy() svcinstall.ExistingPolicy {
	if c.Replace {
		return svcinstall.PolicyReplace
	}
	return svcinstall.PolicyFail
}

// OutputFormat returns the report format
func (c *Config) OutputFormat() svcinstall.OutputFormat {
	f, _ := svcinstall.ParseOutputFormat(c.Output)
	return f
}
