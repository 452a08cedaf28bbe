package config

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	VideoSource        string  // Device index ("0") or path to a media file
	OutputPath         string  // JSON log written at shutdown
	ModelPath          string  // Network weights (ONNX or frozen TF graph)
	ConfigPath         string  // Network config, empty for ONNX
	ModelFormat        string  // "yolov8" or "ssd"
	ClassNamesPath     string  // Optional label file, one class per line
	DetectionThreshold float64 // Minimum detection confidence
	NMSThreshold       float64 // IoU above which overlapping boxes are merged
	Headless           bool    // Skip the preview window
	WindowTitle        string
	StopKey            string // Key that stops the run from the preview window
	WebEnabled         bool   // Serve the live viewer, metrics and logs over HTTP
	Port               int
	Password           string // Required for control endpoints when set
	DBPath             string // Run history database, empty disables archiving
	LogDirectory       string
	LogLevel           string
}

// Load reads an optional .env file, then environment variables over defaults.
func Load() *Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("VIDEO_SOURCE", "traffic1.mp4")
	v.SetDefault("OUTPUT_PATH", "traffic_counts.json")
	v.SetDefault("MODEL_PATH", filepath.Join(".", "models", "yolov8n.onnx"))
	v.SetDefault("CONFIG_PATH", "")
	v.SetDefault("MODEL_FORMAT", "yolov8")
	v.SetDefault("CLASS_NAMES_PATH", "")
	v.SetDefault("DETECTION_THRESHOLD", 0.25)
	v.SetDefault("NMS_THRESHOLD", 0.7)
	v.SetDefault("HEADLESS", false)
	v.SetDefault("WINDOW_TITLE", "Traffic Count")
	v.SetDefault("STOP_KEY", "q")
	v.SetDefault("WEB_ENABLED", false)
	v.SetDefault("PORT", 8080)
	v.SetDefault("PASSWORD", "")
	v.SetDefault("DB_PATH", "")
	v.SetDefault("LOG_DIR", filepath.Join(".", "logs"))
	v.SetDefault("LOG_LEVEL", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		VideoSource:        v.GetString("VIDEO_SOURCE"),
		OutputPath:         v.GetString("OUTPUT_PATH"),
		ModelPath:          v.GetString("MODEL_PATH"),
		ConfigPath:         v.GetString("CONFIG_PATH"),
		ModelFormat:        v.GetString("MODEL_FORMAT"),
		ClassNamesPath:     v.GetString("CLASS_NAMES_PATH"),
		DetectionThreshold: v.GetFloat64("DETECTION_THRESHOLD"),
		NMSThreshold:       v.GetFloat64("NMS_THRESHOLD"),
		Headless:           v.GetBool("HEADLESS"),
		WindowTitle:        v.GetString("WINDOW_TITLE"),
		StopKey:            v.GetString("STOP_KEY"),
		WebEnabled:         v.GetBool("WEB_ENABLED"),
		Port:               v.GetInt("PORT"),
		Password:           v.GetString("PASSWORD"),
		DBPath:             v.GetString("DB_PATH"),
		LogDirectory:       v.GetString("LOG_DIR"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
}
