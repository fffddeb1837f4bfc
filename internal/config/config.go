package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	Password     string `envconfig:"PASSWORD"`
	ArtifactRoot string `envconfig:"ARTIFACT_ROOT" default:"./sdcard"`
	LogDirectory string `envconfig:"LOG_DIR" default:"./logs"`
	DatabasePath string `envconfig:"DB_PATH" default:"./data/journal.db"`
	CameraPort   int    `envconfig:"CAMERA_PORT" default:"5005"`
	EchoLogs     bool   `envconfig:"ECHO_LOGS" default:"true"`

	ModelPath        string `envconfig:"BEE_MODEL_PATH"`
	ConfigPath       string `envconfig:"BEE_CONFIG_PATH"`
	VarroaModelPath  string `envconfig:"VARROA_MODEL_PATH"`
	VarroaConfigPath string `envconfig:"VARROA_CONFIG_PATH"`

	InferPeriod     time.Duration `envconfig:"INFER_PERIOD" default:"5s"`
	InputWidth      int           `envconfig:"INPUT_WIDTH" default:"96"`
	InputHeight     int           `envconfig:"INPUT_HEIGHT" default:"96"`
	CropSize        int           `envconfig:"CROP_SIZE" default:"160"`
	JPEGQuality     int           `envconfig:"JPEG_QUALITY" default:"100"`
	BeeThreshold    float64       `envconfig:"BEE_THRESHOLD" default:"0.35"`
	VarroaThreshold float64       `envconfig:"VARROA_THRESHOLD" default:"0.50"`
	LEDThresholdPct float64       `envconfig:"LED_THRESHOLD_PCT" default:"10.0"`

	// Initial capture flags; both can be toggled at runtime through /api/state.
	InferEnabled bool `envconfig:"INFER_ENABLED" default:"false"`
	SaveEnabled  bool `envconfig:"SAVE_ENABLED" default:"false"`
}

// Load reads the optional dotenv files (".env" when none are given) into the
// process environment and decodes the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	cfg.ArtifactRoot = filepath.Clean(cfg.ArtifactRoot)
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ArtifactRoot == "" {
		return fmt.Errorf("ARTIFACT_ROOT is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if cfg.CameraPort <= 0 || cfg.CameraPort > 65535 {
		return fmt.Errorf("CAMERA_PORT must be between 1 and 65535")
	}
	if cfg.InferPeriod <= 0 {
		return fmt.Errorf("INFER_PERIOD must be positive")
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		return fmt.Errorf("INPUT_WIDTH and INPUT_HEIGHT must be positive")
	}
	if cfg.CropSize <= 0 {
		return fmt.Errorf("CROP_SIZE must be positive")
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	return nil
}
