// Package config loads wazuhcheck settings with viper. With no file and no
// environment overrides the defaults are the fixed local endpoints of a
// single-node Wazuh deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hamed0406/wazuhcheck/internal/domain"
)

const EnvPrefix = "WAZUHCHECK"

type Config struct {
	Log         LogConfig       `mapstructure:"log"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Manager     HTTPTarget      `mapstructure:"manager"`
	ManagerRoot HTTPTarget      `mapstructure:"manager_root"`
	Indexer     HTTPTarget      `mapstructure:"indexer"`
	Dashboard   DashboardTarget `mapstructure:"dashboard"`
	Browser     BrowserConfig   `mapstructure:"browser"`
	Suite       SuiteConfig     `mapstructure:"suite"`
	API         APIConfig       `mapstructure:"api"`
	Schedule    ScheduleConfig  `mapstructure:"schedule"`
	Alert       AlertConfig     `mapstructure:"alert"`
}

type LogConfig struct {
	Dir     string `mapstructure:"dir"`     // rotating JSON log files
	Level   string `mapstructure:"level"`   // debug, info, warn, error
	Console bool   `mapstructure:"console"` // also log to stderr
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPTarget is one API endpoint and the statuses that mean "alive".
type HTTPTarget struct {
	URL         string `mapstructure:"url"`
	Accept      []int  `mapstructure:"accept"`
	TCPFallback bool   `mapstructure:"tcp_fallback"`
}

type DashboardTarget struct {
	URL              string   `mapstructure:"url"`
	Titles           []string `mapstructure:"titles"`
	UserSelector     string   `mapstructure:"user_selector"`
	PasswordSelector string   `mapstructure:"password_selector"`
}

type BrowserConfig struct {
	ExecPath         string        `mapstructure:"exec_path"`
	Headless         bool          `mapstructure:"headless"`
	NoSandbox        bool          `mapstructure:"no_sandbox"`
	IgnoreCertErrors bool          `mapstructure:"ignore_cert_errors"`
	ExtraFlags       []string      `mapstructure:"extra_flags"`
	WaitTimeout      time.Duration `mapstructure:"wait_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	LaunchTimeout    time.Duration `mapstructure:"launch_timeout"`
}

type SuiteConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`   // 1 = sequential
	CheckTimeout time.Duration `mapstructure:"check_timeout"` // hard bound per check
}

type APIConfig struct {
	Addr           string   `mapstructure:"addr"`
	PublicKeys     []string `mapstructure:"public_keys"`
	AdminKeys      []string `mapstructure:"admin_keys"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicRPM      int      `mapstructure:"public_rpm"`
	PublicBurst    int      `mapstructure:"public_burst"`
	AdminRPM       int      `mapstructure:"admin_rpm"`
	AdminBurst     int      `mapstructure:"admin_burst"`
	History        int      `mapstructure:"history"` // reports kept in memory
}

type ScheduleConfig struct {
	Interval   time.Duration `mapstructure:"interval"` // 0 disables periodic runs
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

type AlertConfig struct {
	SlackWebhook string        `mapstructure:"slack_webhook"`
	OnRecovery   bool          `mapstructure:"on_recovery"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SetDefaults registers every key, which also lets AutomaticEnv see them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("http.timeout", 10*time.Second)

	v.SetDefault("manager.url", "https://localhost:55000/manager/info")
	v.SetDefault("manager.accept", []int{200, 401, 403})
	v.SetDefault("manager.tcp_fallback", true)
	v.SetDefault("manager_root.url", "https://localhost:55000")
	v.SetDefault("manager_root.accept", []int{200, 401, 403})
	v.SetDefault("manager_root.tcp_fallback", false)
	v.SetDefault("indexer.url", "https://localhost:9200")
	v.SetDefault("indexer.accept", []int{200, 401})
	v.SetDefault("indexer.tcp_fallback", false)

	v.SetDefault("dashboard.url", "https://localhost:443")
	v.SetDefault("dashboard.titles", []string{"Wazuh", "OpenSearch"})
	v.SetDefault("dashboard.user_selector", `input[type="text"], input[name="username"]`)
	v.SetDefault("dashboard.password_selector", `input[type="password"]`)

	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.ignore_cert_errors", true)
	v.SetDefault("browser.extra_flags", []string{})
	v.SetDefault("browser.wait_timeout", 10*time.Second)
	v.SetDefault("browser.poll_interval", 500*time.Millisecond)
	v.SetDefault("browser.launch_timeout", 30*time.Second)

	v.SetDefault("suite.concurrency", 1)
	v.SetDefault("suite.check_timeout", time.Minute)

	v.SetDefault("api.addr", "127.0.0.1:8080")
	v.SetDefault("api.public_keys", []string{})
	v.SetDefault("api.admin_keys", []string{})
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.public_rpm", 120)
	v.SetDefault("api.public_burst", 60)
	v.SetDefault("api.admin_rpm", 6)
	v.SetDefault("api.admin_burst", 2)
	v.SetDefault("api.history", 50)

	v.SetDefault("schedule.interval", 5*time.Minute)
	v.SetDefault("schedule.run_timeout", 2*time.Minute)

	v.SetDefault("alert.slack_webhook", "")
	v.SetDefault("alert.on_recovery", true)
	v.SetDefault("alert.cooldown", 15*time.Minute)
	v.SetDefault("alert.poll_interval", 30*time.Second)
}

// NewViper returns a viper instance with defaults, env binding and, when
// file is set, that config file. Without file it looks for .wazuhcheck.yaml
// in the working directory and the home directory.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName(".wazuhcheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals and validates.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load is NewViper followed by Decode.
func Load(file string) (Config, error) {
	v, err := NewViper(file)
	if err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// normalize drops empty entries that env splitting leaves behind
// ("a,,b" or a trailing comma).
func (c *Config) normalize() {
	c.API.PublicKeys = compact(c.API.PublicKeys)
	c.API.AdminKeys = compact(c.API.AdminKeys)
	c.API.AllowedOrigins = compact(c.API.AllowedOrigins)
	c.Browser.ExtraFlags = compact(c.Browser.ExtraFlags)
	c.Dashboard.Titles = compact(c.Dashboard.Titles)
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	for _, nt := range []struct {
		name string
		t    HTTPTarget
	}{
		{"manager", c.Manager},
		{"manager_root", c.ManagerRoot},
		{"indexer", c.Indexer},
	} {
		name, t := nt.name, nt.t
		if _, perr := domain.ParseEndpoint(t.URL); perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s.url: %w", name, perr))
		}
		if len(t.Accept) == 0 {
			err = multierr.Append(err, fmt.Errorf("%s.accept: empty", name))
		}
		for _, code := range t.Accept {
			if code < 100 || code > 599 {
				err = multierr.Append(err, fmt.Errorf("%s.accept: %d is not an HTTP status", name, code))
			}
		}
	}
	if _, perr := domain.ParseEndpoint(c.Dashboard.URL); perr != nil {
		err = multierr.Append(err, fmt.Errorf("dashboard.url: %w", perr))
	}
	if len(c.Dashboard.Titles) == 0 {
		err = multierr.Append(err, errors.New("dashboard.titles: empty"))
	}
	if c.Dashboard.UserSelector == "" || c.Dashboard.PasswordSelector == "" {
		err = multierr.Append(err, errors.New("dashboard: user_selector and password_selector are required"))
	}
	if c.HTTP.Timeout <= 0 {
		err = multierr.Append(err, errors.New("http.timeout must be positive"))
	}
	if c.Browser.WaitTimeout <= 0 || c.Browser.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("browser.wait_timeout and browser.poll_interval must be positive"))
	}
	if c.Suite.Concurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("suite.concurrency: %d, want >= 1", c.Suite.Concurrency))
	}
	if c.Schedule.Interval < 0 {
		err = multierr.Append(err, errors.New("schedule.interval must not be negative"))
	}
	return err
}
