package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultMaxContentLength caps request bodies at 5MB.
const DefaultMaxContentLength = 5 * 1024 * 1024

type Config struct {
	Port             int
	ModelPath        string
	Threshold        float64
	MaxContentLength int64 // Maximum request body size in bytes
	LogDirectory     string
	DatabasePath     string // Empty disables the run ledger

	// Offline data pipeline
	BitmapsPath string
	LabelsPath  string
	OutputCSV   string
	MaxRows     int // 0 = all bitmaps

	// Training job
	DataPath    string
	ModelOutput string
}

// NewViper returns a viper instance with every setting's default registered
// and environment lookup enabled. A .env file in the working directory is
// loaded first when present.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// An empty LOG_DIR or DB_PATH switches that feature off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

var defaults = map[string]interface{}{
	"PORT":               5001,
	"MODEL_PATH":         "models/qr_malicious_model.json",
	"THRESHOLD":          0.5,
	"MAX_CONTENT_LENGTH": DefaultMaxContentLength,
	"LOG_DIR":            "logs",
	"DB_PATH":            "data/qrguard.db",
	"X_PATH":             "data/qr_codes_29.pickle",
	"Y_PATH":             "data/qr_codes_29_labels.pickle",
	"OUT_CSV":            "data/qr_dataset.csv",
	"MAX_N":              0,
	"DATA_PATH":          "data/qr_dataset.csv",
	"MODEL_OUT":          "models/qr_malicious_model.json",
}

// FromViper builds a Config from an already prepared viper instance, so
// callers can bind command line flags before values are resolved. Numeric
// settings that do not parse or fall outside their range are rejected.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ModelPath:    v.GetString("MODEL_PATH"),
		LogDirectory: v.GetString("LOG_DIR"),
		DatabasePath: v.GetString("DB_PATH"),
		BitmapsPath:  v.GetString("X_PATH"),
		LabelsPath:   v.GetString("Y_PATH"),
		OutputCSV:    v.GetString("OUT_CSV"),
		DataPath:     v.GetString("DATA_PATH"),
		ModelOutput:  v.GetString("MODEL_OUT"),
	}

	var err error
	if cfg.Port, err = cast.ToIntE(number(v, "PORT")); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, invalid("PORT", v)
	}
	if cfg.Threshold, err = cast.ToFloat64E(number(v, "THRESHOLD")); err != nil || cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w (must be a number in [0,1])", invalid("THRESHOLD", v))
	}
	if cfg.MaxContentLength, err = cast.ToInt64E(number(v, "MAX_CONTENT_LENGTH")); err != nil || cfg.MaxContentLength <= 0 {
		return nil, fmt.Errorf("%w (must be a positive byte count)", invalid("MAX_CONTENT_LENGTH", v))
	}
	if cfg.MaxRows, err = cast.ToIntE(number(v, "MAX_N")); err != nil || cfg.MaxRows < 0 {
		return nil, fmt.Errorf("%w (0 means all)", invalid("MAX_N", v))
	}
	return cfg, nil
}

// number returns the raw setting, treating a blank value as unset.
func number(v *viper.Viper, key string) interface{} {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		if s = strings.TrimSpace(s); s == "" {
			return defaults[key]
		}
		return s
	}
	return raw
}

func invalid(key string, v *viper.Viper) error {
	return fmt.Errorf("invalid %s %q", key, cast.ToString(v.Get(key)))
}

// Load resolves the configuration from the environment and .env.
func Load() (*Config, error) {
	return FromViper(NewViper())
}
