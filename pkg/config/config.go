// Package config loads the lanwake configuration from file and
// environment via Viper. CLI flags override loaded values at the call
// sites that own them.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Machine is a known wake target, so the CLI and the web UI can wake
// hosts by name instead of retyping MAC addresses.
type Machine struct {
	Name      string `mapstructure:"name" json:"name"`
	MAC       string `mapstructure:"mac" json:"mac"`
	Broadcast string `mapstructure:"broadcast" json:"broadcast,omitempty"`
	Port      int    `mapstructure:"port" json:"port,omitempty"`
}

type Config struct {
	Broadcast     string        `mapstructure:"broadcast"`
	Port          int           `mapstructure:"port"`
	MonitorPorts  []int         `mapstructure:"monitor_ports"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
	APIListenAddr string        `mapstructure:"api_listen_address"`
	LogDB         string        `mapstructure:"log_db"`
	Machines      []Machine     `mapstructure:"machines"`
	ConfigFile    string        `mapstructure:"config_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Broadcast:     "255.255.255.255",
		Port:          9,
		MonitorPorts:  []int{7, 9},
		PollTimeout:   100 * time.Millisecond,
		APIListenAddr: ":5000",
		LogDB:         "lanwake.db",
		ConfigFile:    "lanwake.yaml",
	}
}

// LoadConfig loads configuration from file and environment, in that order
// of precedence over defaults.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("lanwake")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/lanwake/")
	viper.AddConfigPath("$HOME/.lanwake")
	viper.SetEnvPrefix("LANWAKE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults and env apply.
	} else {
		cfg.ConfigFile = viper.ConfigFileUsed()
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindMachine resolves a configured machine by name.
func (c *Config) FindMachine(name string) (Machine, bool) {
	for _, m := range c.Machines {
		if m.Name == name {
			return m, true
		}
	}
	return Machine{}, false
}
