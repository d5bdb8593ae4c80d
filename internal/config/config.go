// Package config provides configuration management for convergd
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Provider defines the interface for configuration providers.
type Provider interface {
	// GetConfig returns the current application configuration.
	GetConfig() *Settings
	// SetConfig sets the application configuration.
	SetConfig(c *Settings)
	// InitConfig initializes the application configuration.
	InitConfig() *Settings
	// SetConfigFilePath sets the configuration file path.
	SetConfigFilePath(p string)
}

// defaultConfigProvider implements the Provider interface.
type defaultConfigProvider struct {
	cfg *Settings
}

// NewDefaultConfigProvider creates a new default config provider.
func NewDefaultConfigProvider() Provider {
	return &defaultConfigProvider{}
}

var defaultProvider = NewDefaultConfigProvider()

// Default configuration values for the convergd system.
const (
	DefaultStateDir          = "/var/lib/convergd"
	DefaultStatePath         = "/var/lib/convergd/state.json"
	DefaultSnapshotDir       = "/var/lib/convergd/snapshots"
	DefaultAuditDBPath       = "/var/lib/convergd/audit.db"
	DefaultBinExportDir      = "/usr/local/bin"
	DefaultUserStateDir      = "$HOME/.local/share/convergd"
	DefaultUserStatePath     = "$HOME/.local/share/convergd/state.json"
	DefaultUserSnapshotDir   = "$HOME/.local/share/convergd/snapshots"
	DefaultUserAuditDBPath   = "$HOME/.local/share/convergd/audit.db"
	DefaultUserBinExportDir  = "$HOME/.local/bin"
	DefaultRuntime           = "podman"
	DefaultSecurityService   = "firewalld"
	DefaultCommandTimeout    = 2 * time.Minute
	DefaultReconcileInterval = 5 * time.Minute
	DefaultMaxParallelOps    = 4
	DefaultSnapshotKeep      = 10
	DefaultUserMode          = false
	DefaultVerbose           = false
)

// DefaultReloadableServices lists services whose configuration changes can
// be applied with a reload instead of a reboot. Overridable via the config
// file so site policy can extend or shrink it.
var DefaultReloadableServices = []string{
	"nginx",
	"caddy",
	"httpd",
	"sshd",
	"systemd-resolved",
	"systemd-timesyncd",
	"chronyd",
	"dnsmasq",
}

// DefaultExpectedServices lists host services that system health
// aggregation always checks.
var DefaultExpectedServices = []string{
	"dbus",
	"systemd-logind",
	"NetworkManager",
}

// Settings represents the configuration for the convergd system.
type Settings struct {
	StateDir           string        `yaml:"stateDir"`
	StatePath          string        `yaml:"statePath"`
	SnapshotDir        string        `yaml:"snapshotDir"`
	SnapshotKeep       int           `yaml:"snapshotKeep"`
	AuditDBPath        string        `yaml:"auditDBPath"`
	BinExportDir       string        `yaml:"binExportDir"`
	Runtime            string        `yaml:"runtime"`
	CommandTimeout     time.Duration `yaml:"commandTimeout"`
	ReconcileInterval  time.Duration `yaml:"reconcileInterval"`
	MaxParallelOps     int           `yaml:"maxParallelOps"`
	ReloadableServices []string      `yaml:"reloadableServices"`
	SecurityService    string        `yaml:"securityService"`
	ExpectedServices   []string      `yaml:"expectedServices"`
	UserMode           bool          `yaml:"userMode"`
	Verbose            bool          `yaml:"verbose"`
}

func (p *defaultConfigProvider) SetConfig(c *Settings) {
	p.cfg = c
}

func (p *defaultConfigProvider) GetConfig() *Settings {
	return p.cfg
}

func (p *defaultConfigProvider) SetConfigFilePath(path string) {
	viper.SetConfigFile(path)
}

func (p *defaultConfigProvider) InitConfig() *Settings {
	p.cfg = initConfigInternal()
	return p.cfg
}

// SetConfig sets the application configuration on the default provider.
func SetConfig(c *Settings) {
	defaultProvider.SetConfig(c)
}

// GetConfig returns the current application configuration.
func GetConfig() *Settings {
	return defaultProvider.GetConfig()
}

// SetConfigFilePath sets the configuration file path.
func SetConfigFilePath(p string) {
	defaultProvider.SetConfigFilePath(p)
}

// InitConfig initializes the application configuration.
func InitConfig() *Settings {
	return defaultProvider.InitConfig()
}

// ApplyUserMode rewrites paths for a rootless installation.
func (s *Settings) ApplyUserMode() {
	s.UserMode = true
	s.StateDir = os.ExpandEnv(DefaultUserStateDir)
	s.StatePath = os.ExpandEnv(DefaultUserStatePath)
	s.SnapshotDir = os.ExpandEnv(DefaultUserSnapshotDir)
	s.AuditDBPath = os.ExpandEnv(DefaultUserAuditDBPath)
	s.BinExportDir = os.ExpandEnv(DefaultUserBinExportDir)
}

func initConfigInternal() *Settings {
	cfg := &Settings{
		StateDir:           DefaultStateDir,
		StatePath:          DefaultStatePath,
		SnapshotDir:        DefaultSnapshotDir,
		SnapshotKeep:       DefaultSnapshotKeep,
		AuditDBPath:        DefaultAuditDBPath,
		BinExportDir:       DefaultBinExportDir,
		Runtime:            DefaultRuntime,
		CommandTimeout:     DefaultCommandTimeout,
		ReconcileInterval:  DefaultReconcileInterval,
		MaxParallelOps:     DefaultMaxParallelOps,
		ReloadableServices: DefaultReloadableServices,
		SecurityService:    DefaultSecurityService,
		ExpectedServices:   DefaultExpectedServices,
		UserMode:           DefaultUserMode,
		Verbose:            DefaultVerbose,
	}

	viper.SetDefault("stateDir", DefaultStateDir)
	viper.SetDefault("statePath", DefaultStatePath)
	viper.SetDefault("snapshotDir", DefaultSnapshotDir)
	viper.SetDefault("snapshotKeep", DefaultSnapshotKeep)
	viper.SetDefault("auditDBPath", DefaultAuditDBPath)
	viper.SetDefault("binExportDir", DefaultBinExportDir)
	viper.SetDefault("runtime", DefaultRuntime)
	viper.SetDefault("commandTimeout", DefaultCommandTimeout)
	viper.SetDefault("reconcileInterval", DefaultReconcileInterval)
	viper.SetDefault("maxParallelOps", DefaultMaxParallelOps)
	viper.SetDefault("reloadableServices", DefaultReloadableServices)
	viper.SetDefault("securityService", DefaultSecurityService)
	viper.SetDefault("expectedServices", DefaultExpectedServices)
	viper.SetDefault("userMode", DefaultUserMode)
	viper.SetDefault("verbose", DefaultVerbose)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(os.ExpandEnv("$HOME/.config/convergd"))
	viper.AddConfigPath("/etc/convergd")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		panic(err)
	}

	return cfg
}
