package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	sinkPubSub = "pubsub"
	sinkNATS   = "nats"
	sinkNone   = "none"
)

var (
	errUnknownSink      = errors.New("EVENT_SINK must be pubsub, nats or none")
	errMissingPubSub    = errors.New("missing GCP_PROJECT_ID or CALLBACK_TOPIC env var")
	errMissingNATS      = errors.New("missing NATS_URL or NATS_SUBJECT env var")
	errPartialDBEnv     = errors.New("missing DB envs (DB_USER/DB_PASSWORD/DB_NAME/INSTANCE_CONNECTION_NAME)")
	errInvalidHTTPPort  = errors.New("HTTPPORT must not be empty")
	errInvalidPreviewSz = errors.New("LOG_PAYLOAD_PREVIEW_CHARS must be >= 0")
	errInvalidLogOut    = errors.New("LOG_OUTPUT must be stdout or stderr")
)

type dbConfig struct {
	URL        string
	User       string
	Password   string
	Name       string
	Instance   string
	UsePrivate bool
}

// enabled reports whether any database setting was given.
func (c dbConfig) enabled() bool {
	return c.URL != "" || c.User != "" || c.Password != "" || c.Name != "" || c.Instance != ""
}

type pubsubConfig struct {
	ProjectID string
	Topic     string
	Ordering  bool
}

type natsConfig struct {
	URL     string
	Subject string
}

type Config struct {
	HTTPPort      string
	LogLevel      string
	LogDebug      bool
	LogOutput     string
	LogTimeFormat string
	PreviewChars  int
	EventSink     string
	DB            dbConfig
	PubSub        pubsubConfig
	NATS          natsConfig
}

func loadConfig() Config {
	return Config{
		HTTPPort:      getenv("HTTPPORT", "8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogDebug:      getenvBool("LOG_DEBUG"),
		LogOutput:     strings.ToLower(getenv("LOG_OUTPUT", "stdout")),
		LogTimeFormat: os.Getenv("LOG_TIME_FORMAT"),
		PreviewChars:  getenvInt("LOG_PAYLOAD_PREVIEW_CHARS", 32),
		EventSink:     strings.ToLower(getenv("EVENT_SINK", sinkPubSub)),
		DB: dbConfig{
			URL:        os.Getenv("DATABASE_URL"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       os.Getenv("DB_NAME"),
			Instance:   os.Getenv("INSTANCE_CONNECTION_NAME"),
			UsePrivate: os.Getenv("PRIVATE_IP") != "",
		},
		PubSub: pubsubConfig{
			ProjectID: os.Getenv("GCP_PROJECT_ID"),
			Topic:     os.Getenv("CALLBACK_TOPIC"),
			Ordering:  getenvBool("CALLBACK_ORDERING"),
		},
		NATS: natsConfig{
			URL:     os.Getenv("NATS_URL"),
			Subject: getenv("NATS_SUBJECT", "ble.callbacks"),
		},
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPPort == "" {
		errs = append(errs, errInvalidHTTPPort)
	}
	if c.PreviewChars < 0 {
		errs = append(errs, errInvalidPreviewSz)
	}
	switch c.LogOutput {
	case "", "stdout", "stderr":
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", errInvalidLogOut, c.LogOutput))
	}

	switch c.EventSink {
	case sinkPubSub:
		if c.PubSub.ProjectID == "" || c.PubSub.Topic == "" {
			errs = append(errs, errMissingPubSub)
		}
	case sinkNATS:
		if c.NATS.URL == "" || c.NATS.Subject == "" {
			errs = append(errs, errMissingNATS)
		}
	case sinkNone:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", errUnknownSink, c.EventSink))
	}

	if c.DB.enabled() && c.DB.URL == "" {
		if c.DB.User == "" || c.DB.Password == "" || c.DB.Name == "" || c.DB.Instance == "" {
			errs = append(errs, errPartialDBEnv)
		}
	}

	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(k string) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
