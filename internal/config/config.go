package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		BcryptCost      int
	}
	Bootstrap struct {
		AdminUsername string
		AdminEmail    string
		AdminPassword string
	}
	VIP struct {
		DefaultDays          int
		SweepIntervalMinutes int
	}
	Log struct {
		Level string
	}
}

// TokenTTL is the bearer token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// SweepInterval is the VIP expiry sweep period; zero disables the sweeper.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.VIP.SweepIntervalMinutes) * time.Minute
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth token ttl must be positive, got %d minutes", c.Auth.TokenTTLMinutes)
	}
	if c.VIP.DefaultDays <= 0 {
		return fmt.Errorf("vip default days must be positive, got %d", c.VIP.DefaultDays)
	}
	if c.VIP.SweepIntervalMinutes < 0 {
		return fmt.Errorf("vip sweep interval cannot be negative")
	}
	if strings.TrimSpace(c.Bootstrap.AdminUsername) == "" || strings.TrimSpace(c.Bootstrap.AdminPassword) == "" {
		return fmt.Errorf("bootstrap admin username and password are required")
	}
	return nil
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("TIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/tips.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("bootstrap.adminusername", "admin")
	v.SetDefault("bootstrap.adminemail", "admin@localhost")
	v.SetDefault("bootstrap.adminpassword", "admin123")
	v.SetDefault("vip.defaultdays", 30)
	v.SetDefault("vip.sweepintervalminutes", 60)
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
