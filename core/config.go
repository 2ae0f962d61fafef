package core

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all environment-derived settings. It is built once at
// process start and passed by reference into each component.
type Config struct {
	Env      string // DEV (default), TEST, QA, PROD
	Debug    bool
	TestMode bool
	AppName  string
	Address  string

	MoodleBase    string // LMS root URL, no trailing slash
	MoodleService string // web-service shortname tokens are issued for
	AdminToken    string // optional; enables account lookups by email

	GoogleClientID string
	LinksFile      string

	BodyLimit       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	RollbarToken string
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("env", "DEV")
	v.SetDefault("debug", true)
	v.SetDefault("app_name", "AulaMovil")
	v.SetDefault("address", ":8000")
	v.SetDefault("moodle_service", "app_movil")
	v.SetDefault("links_file", "google-links.json")
	v.SetDefault("body_limit", "50M")
	v.SetDefault("request_timeout", 20*time.Second)
	v.SetDefault("shutdown_timeout", 20*time.Second)

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "loading .env")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "checking .env")
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:             strings.ToUpper(v.GetString("env")),
		Debug:           v.GetBool("debug"),
		AppName:         v.GetString("app_name"),
		Address:         v.GetString("address"),
		MoodleBase:      strings.TrimSuffix(CleanString(v.GetString("moodle_base")), "/"),
		MoodleService:   v.GetString("moodle_service"),
		AdminToken:      CleanString(v.GetString("admin_token")),
		GoogleClientID:  CleanString(v.GetString("google_client_id")),
		LinksFile:       v.GetString("links_file"),
		BodyLimit:       v.GetString("body_limit"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		RollbarToken:    v.GetString("rollbar_token"),
	}
	conf.TestMode = conf.Env == "TEST"

	if conf.MoodleBase == "" {
		return nil, errors.New("MOODLE_BASE is required")
	}
	return conf, nil
}
