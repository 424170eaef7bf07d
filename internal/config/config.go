// Package config provides YAML-based configuration loading for Callboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Callboard configuration, loaded from callboard.yaml.
type Config struct {
	Database    DatabaseConfig     `yaml:"database"`
	Dashboard   DashboardConfig    `yaml:"dashboard"`
	Sweep       SweepConfig        `yaml:"sweep"`
	Notify      NotifyConfig       `yaml:"notify"`
	Departments []DepartmentConfig `yaml:"departments"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// DashboardConfig holds settings for the read-only HTTP dashboard.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// SweepConfig controls the overdue-escalation sweep schedule.
type SweepConfig struct {
	Schedule string `yaml:"schedule"` // 5-field cron expression
}

// NotifyConfig holds escalation notification settings. All channels are
// optional; an empty channel is skipped.
type NotifyConfig struct {
	Command string        `yaml:"command"` // shell command template
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	GitHub  GitHubConfig  `yaml:"github"`
}

// SlackConfig holds Slack delivery settings.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordConfig holds Discord delivery settings.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// GitHubConfig holds settings for filing escalation issues.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// DepartmentConfig defines a default project role seeded into new projects.
type DepartmentConfig struct {
	Department string `yaml:"department"`
	Name       string `yaml:"name"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "callboard"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "*/15 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	for i, d := range c.Departments {
		if d.Name == "" {
			errs = append(errs, fmt.Sprintf("departments[%d].name is required", i))
		}
	}
	if c.Notify.Slack.Token != "" && c.Notify.Slack.Channel == "" {
		errs = append(errs, "notify.slack.channel is required when a token is set")
	}
	if c.Notify.Discord.Token != "" && c.Notify.Discord.Channel == "" {
		errs = append(errs, "notify.discord.channel is required when a token is set")
	}
	if c.Notify.GitHub.Token != "" && (c.Notify.GitHub.Owner == "" || c.Notify.GitHub.Repo == "") {
		errs = append(errs, "notify.github.owner and notify.github.repo are required when a token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
