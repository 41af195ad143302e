package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required values are enforced by must();
// operational knobs fall back to defaults matching the reference
// deployment.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	TCPPort      string // port the terminal ingestion listener binds to
	HTTPPort     string // port the live monitor HTTP server binds to
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	Timezone     string // IANA timezone all shift arithmetic happens in
	SweepCron    string // cron expression for the absence sweep
	MaxLineBytes int    // per-connection cap on unterminated inbound data
}

// Load reads configuration values from environment variables and
// returns a Config. Missing required variables cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		TCPPort:      must("TCP_PORT"),
		HTTPPort:     must("HTTP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		Timezone:     getenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),
		SweepCron:    getenv("SWEEP_CRON", "*/10 * * * *"),
		MaxLineBytes: atoi(getenv("MAX_LINE_BYTES", "4096")),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
