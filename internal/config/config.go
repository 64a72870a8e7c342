// Package config holds the invocation settings for bosaictl. Values
// come from built-in defaults, an optional .env file, and environment
// variables, in that order of precedence (later wins).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config describes the one application this tool verifies.
type Config struct {
	TargetURL    string        // health endpoint polled by the gate
	ExpectStatus int           // success condition, status code equality
	Attempts     int           // attempt budget N
	Interval     time.Duration // inter-attempt delay D

	Unit    string // systemd unit of the app
	Port    int    // TCP port the app serves on
	AppPath string // deployed source file
	LogFile string // log file fallback when journalctl is unavailable
	EnvVars string // comma-separated variables expected in the app process

	DatabasePath string // run history; empty disables history
	LogDir       string // directory for the structured run journal

	NtfyServer string // ntfy server; empty disables notifications
	NtfyTopic  string
	NtfyToken  string
}

// Load reads configuration. An explicit envFile is loaded first so the
// process environment still wins; a missing default .env is fine.
func Load(envFile string) Config {
	if envFile != "" {
		godotenv.Load(envFile)
	} else {
		godotenv.Load()
	}

	cfg := Config{
		TargetURL:    "http://127.0.0.1:8501/_stcore/health",
		ExpectStatus: 200,
		Attempts:     15,
		Interval:     time.Second,
		Unit:         "bosai-dx.service",
		Port:         8501,
		AppPath:      "/opt/bosai-dx/app.py",
		LogFile:      "/var/log/bosai-dx/app.log",
		EnvVars:      "GEMINI_API_KEY",
		DatabasePath: "/var/lib/bosaictl/bosaictl.db",
		LogDir:       "logs",
	}

	if v := os.Getenv("TARGET_URL"); v != "" {
		cfg.TargetURL = v
	}
	if v := os.Getenv("EXPECT_STATUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 100 && n < 600 {
			cfg.ExpectStatus = n
		}
	}
	if v := os.Getenv("GATE_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Attempts = n
		}
	}
	if v := os.Getenv("GATE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("APP_UNIT"); v != "" {
		cfg.Unit = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 65535 {
			cfg.Port = n
		}
	}
	if v := os.Getenv("APP_PATH"); v != "" {
		cfg.AppPath = v
	}
	if v := os.Getenv("APP_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("APP_ENV_VARS"); v != "" {
		cfg.EnvVars = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("NTFY_SERVER"); v != "" {
		cfg.NtfyServer = v
	}
	if v := os.Getenv("NTFY_TOPIC"); v != "" {
		cfg.NtfyTopic = v
	}
	if v := os.Getenv("NTFY_TOKEN"); v != "" {
		cfg.NtfyToken = v
	}

	return cfg
}

// EnvVarNames splits the configured variable list.
func (c Config) EnvVarNames() []string {
	var names []string
	for _, name := range strings.Split(c.EnvVars, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
