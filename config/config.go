// Package config loads the gateway's settings: where to listen, which
// PostgreSQL database to forward to, and the single username/password
// pair MySQL clients authenticate with. Every flag falls back to an
// environment variable so the binary works both from a shell and a
// container.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	BindAddress string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	MySQLUsername string
	MySQLPassword string

	LogLevel int
}

func Parse() *Config {
	cfg := &Config{}
	flag.StringVar(&cfg.BindAddress, "bind-address", envStr("BIND_ADDRESS", "0.0.0.0:3306"), "address the MySQL-facing listener binds to")

	flag.StringVar(&cfg.DBHost, "db-host", envStr("DB_HOST", "localhost"), "PostgreSQL backend host")
	flag.IntVar(&cfg.DBPort, "db-port", envInt("DB_PORT", 5432), "PostgreSQL backend port")
	flag.StringVar(&cfg.DBUser, "db-user", envStr("DB_USER", "postgres"), "PostgreSQL backend user")
	flag.StringVar(&cfg.DBPassword, "db-password", envStr("DB_PASSWORD", ""), "PostgreSQL backend password")
	flag.StringVar(&cfg.DBName, "db-name", envStr("DB_NAME", "postgres"), "PostgreSQL backend database")

	flag.StringVar(&cfg.MySQLUsername, "mysql-username", envStr("MYSQL_USERNAME", ""), "username MySQL clients must authenticate with")
	flag.StringVar(&cfg.MySQLPassword, "mysql-password", envStr("MYSQL_PASSWORD", ""), "password MySQL clients must authenticate with")

	flag.IntVar(&cfg.LogLevel, "log-level", envInt("LOG_LEVEL", 0), "log verbosity (0=off, 1=connections, 2=statements)")
	flag.Parse()
	return cfg
}

// BackendDSN builds the libpq-style connection string the executor
// dials with pgx.ParseConfig.
func (c *Config) BackendDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
