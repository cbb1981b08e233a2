package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys recognised in the config file. Flags and LFGSIM_* environment
// variables use the same names.
const (
	KeyMaxInstances = "max-num-instances"
	KeyTanks        = "num-tank"
	KeyHealers      = "num-healer"
	KeyDPS          = "num-dps"
	KeyMinTime      = "min-time"
	KeyMaxTime      = "max-time"

	KeySeed            = "seed"
	KeyTimeUnit        = "time-unit"
	KeyMetricsPort     = "metrics-port"
	KeyLogLevel        = "log-level"
	KeyPubsubTopic     = "pubsub-topic"
	KeyPubsubProjectID = "pubsub-project"
	KeyCredentialsFile = "credentials-file"
)

// ClearTimeCeiling is the largest clear time a dungeon may take, in
// simulated seconds. Larger max-time values are clamped.
const ClearTimeCeiling = 15

const envPrefix = "LFGSIM"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	MaxInstances int
	Tanks        int
	Healers      int
	DPS          int
	MinTime      int
	MaxTime      int

	Seed            int64
	TimeUnit        time.Duration
	MetricsPort     int
	LogLevel        string
	PubsubTopic     string
	GoogleProjectID string
	CredentialsFile string
}

// Load reads the key/value file at path and layers environment variables
// and flags on top of it. Values that are missing or out of range are left
// at zero so Resolve can prompt for them.
func Load(path string, flags *pflag.FlagSet) *Config {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyTimeUnit, time.Second)
	v.SetDefault(KeyLogLevel, "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			log.Warn().Err(err).Msg("config: failed to bind flags")
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		// config.txt uses "key value" lines, which is valid Java properties syntax
		v.SetConfigType("properties")
		if err := v.ReadInConfig(); err != nil {
			log.Error().Err(err).Str("path", path).Msg("config: could not read config file; missing values will be prompted")
		}
	}

	cfg := &Config{
		MaxInstances:    positive(v, KeyMaxInstances),
		Tanks:           positive(v, KeyTanks),
		Healers:         positive(v, KeyHealers),
		DPS:             positive(v, KeyDPS),
		MinTime:         positive(v, KeyMinTime),
		MaxTime:         v.GetInt(KeyMaxTime),
		Seed:            v.GetInt64(KeySeed),
		TimeUnit:        v.GetDuration(KeyTimeUnit),
		MetricsPort:     v.GetInt(KeyMetricsPort),
		LogLevel:        strings.TrimSpace(v.GetString(KeyLogLevel)),
		PubsubTopic:     strings.TrimSpace(v.GetString(KeyPubsubTopic)),
		CredentialsFile: strings.TrimSpace(firstNonEmpty(v.GetString(KeyCredentialsFile), os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))),
	}

	if cfg.MinTime >= ClearTimeCeiling {
		log.Warn().Int(KeyMinTime, cfg.MinTime).Msgf("config: %s must be below %d", KeyMinTime, ClearTimeCeiling)
		cfg.MinTime = 0
	}
	if cfg.MaxTime < 0 {
		cfg.MaxTime = 0
	}
	if cfg.MinTime > 0 && cfg.MaxTime > 0 && cfg.MinTime >= cfg.MaxTime {
		log.Warn().Int(KeyMinTime, cfg.MinTime).Int(KeyMaxTime, cfg.MaxTime).Msgf("config: %s must be less than %s", KeyMinTime, KeyMaxTime)
		cfg.MaxTime = 0
	}
	if cfg.TimeUnit <= 0 {
		log.Warn().Dur(KeyTimeUnit, cfg.TimeUnit).Msg("config: time unit must be positive; using 1s")
		cfg.TimeUnit = time.Second
	}

	if cfg.PubsubTopic != "" {
		cfg.GoogleProjectID = getGoogleProjectID(cfg.CredentialsFile, strings.TrimSpace(v.GetString(KeyPubsubProjectID)))
		if cfg.GoogleProjectID == "" {
			log.Warn().Msg("Google project ID not resolved; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_PROJECT_ID or LFGSIM_PUBSUB_PROJECT")
		}
	}
	return cfg
}

// positive returns the value for key, or zero with a warning when it is set
// but not a positive integer.
func positive(v *viper.Viper, key string) int {
	if !v.IsSet(key) {
		return 0
	}
	n := v.GetInt(key)
	if n <= 0 {
		log.Warn().Str("key", key).Str("value", v.GetString(key)).Msgf("config: invalid value for %s. Must be > 0.", key)
		return 0
	}
	return n
}

// Missing lists the keys that still need a value before the run can start.
func (c *Config) Missing() []string {
	var out []string
	if c.MaxInstances <= 0 {
		out = append(out, KeyMaxInstances)
	}
	if c.Tanks <= 0 {
		out = append(out, KeyTanks)
	}
	if c.Healers <= 0 {
		out = append(out, KeyHealers)
	}
	if c.DPS <= 0 {
		out = append(out, KeyDPS)
	}
	if c.MinTime <= 0 {
		out = append(out, KeyMinTime)
	}
	if c.MaxTime <= c.MinTime {
		out = append(out, KeyMaxTime)
	}
	return out
}

// ClampMaxTime caps MaxTime at ClearTimeCeiling. It reports whether the
// value changed.
func (c *Config) ClampMaxTime() bool {
	if c.MaxTime <= ClearTimeCeiling {
		return false
	}
	log.Warn().Int(KeyMaxTime, c.MaxTime).Msgf("Warning: %s exceeds maximum allowed value (%d). Setting %s to %d.", KeyMaxTime, ClearTimeCeiling, KeyMaxTime, ClearTimeCeiling)
	c.MaxTime = ClearTimeCeiling
	return true
}

// Validate checks the run parameters.
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing or invalid %s", ErrInvalid, strings.Join(missing, ", "))
	}
	if c.MaxTime > ClearTimeCeiling {
		return fmt.Errorf("%w: %s must be <= %d", ErrInvalid, KeyMaxTime, ClearTimeCeiling)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.MetricsPort))
}

// Redacted returns a view safe for logging
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		KeyMaxInstances:       c.MaxInstances,
		KeyTanks:              c.Tanks,
		KeyHealers:            c.Healers,
		KeyDPS:                c.DPS,
		KeyMinTime:            c.MinTime,
		KeyMaxTime:            c.MaxTime,
		KeySeed:               c.Seed,
		KeyTimeUnit:           c.TimeUnit.String(),
		KeyMetricsPort:        c.MetricsPort,
		KeyLogLevel:           c.LogLevel,
		KeyPubsubTopic:        c.PubsubTopic,
		"projectID":           c.GoogleProjectID,
		"credentialsProvided": c.CredentialsFile != "",
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func projectIDFromCredentials(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	var x struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return "", nil
	}
	return x.ProjectID, nil
}

func getGoogleProjectID(credsFile string, explicit string) string {
	// 1) Project from the credentials file
	if p := strings.TrimSpace(credsFile); p != "" {
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			log.Info().Str("credsFile", p).Msg("using project_id from credentials file")
			return strings.TrimSpace(pid)
		}
		log.Warn().Str("credsFile", p).Msg("project_id not found in credentials file or unreadable")
	}

	// 2) Explicit --pubsub-project / LFGSIM_PUBSUB_PROJECT
	if explicit := strings.TrimSpace(explicit); explicit != "" {
		log.Info().Str("projectID", explicit).Msg("using explicit pubsub project")
		return explicit
	}

	// 3) Common Google envs
	if v := firstNonEmpty(os.Getenv("GOOGLE_PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("GCLOUD_PROJECT"), os.Getenv("GCP_PROJECT")); strings.TrimSpace(v) != "" {
		v = strings.TrimSpace(v)
		log.Info().Str("projectID", v).Msg("using Google project from environment")
		return v
	}
	return ""
}
