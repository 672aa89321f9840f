// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Roulette  RouletteConfig  `mapstructure:"roulette"`
	Actions   ActionsConfig   `mapstructure:"actions"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig holds the health endpoint configuration.
// An empty Addr disables the endpoint.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// DailyConfig holds daily reward configuration.
type DailyConfig struct {
	Reward        string `mapstructure:"reward"`
	CooldownHours int    `mapstructure:"cooldown_hours"`
}

// RewardAmount returns the daily reward as a decimal.
// Invalid values fall back to zero so a typo never mints coins.
func (d DailyConfig) RewardAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(d.Reward)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// RouletteConfig holds Russian Roulette configuration.
type RouletteConfig struct {
	LobbyTimeout time.Duration `mapstructure:"lobby_timeout"`
	TurnTimeout  time.Duration `mapstructure:"turn_timeout"`
	MaxBet       string        `mapstructure:"max_bet"`
	MaxPlayers   int           `mapstructure:"default_max_players"`
}

// MaxBetAmount returns the configured bet ceiling, zero meaning unlimited.
func (r RouletteConfig) MaxBetAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(r.MaxBet)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// ActionsConfig holds cooldowns for timed economy actions.
type ActionsConfig struct {
	GatherCooldown  time.Duration `mapstructure:"gather_cooldown"`
	HarvestCooldown time.Duration `mapstructure:"harvest_cooldown"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, DATABASE_HOST, ROULETTE_TURN_TIMEOUT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("daily.reward", "500")
	v.SetDefault("daily.cooldown_hours", 24)

	v.SetDefault("roulette.lobby_timeout", "60s")
	v.SetDefault("roulette.turn_timeout", "60s")
	v.SetDefault("roulette.max_bet", "0")
	v.SetDefault("roulette.default_max_players", 6)

	v.SetDefault("actions.gather_cooldown", "5m")
	v.SetDefault("actions.harvest_cooldown", "30m")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
