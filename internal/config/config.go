// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
)

const (
	AppName       = "dtmfdecoder"
	ConfigType    = "yaml"
	EnvPrefix     = "DTMFDECODER"
	DefaultConfig = `# DTMF Decoder Configuration

# Analysis windows
window_ms: 250                # Window length in milliseconds
overlap: 0.5                  # Fraction of a window shared with the next (0 to <1)

# Detection
energy_gate_dbfs: -20         # Windows at or above this RMS level (dBFS) are active
twist_ratio: 4.0              # Max ratio between the stronger and weaker tone (>1)
noise_floor_percentile: 95    # Percentile of noise-window filter peaks (0-100]
threshold_multiplier: 10      # Detection threshold = multiplier x noise floor
fallback_noise_floor: 1000    # Noise floor when a recording has no quiet windows
min_digit_ms: 0               # Drop digits shorter than this, 0 keeps all
strategy: "region"            # region (consensus per tone region) or window (debounced windows)
spectral_diagnostics: false   # Run an FFT per window for the report

# Input
sample_rate: 22050            # Rate for CSV dumps without a header, and for recording

# Recording
device_index: -1              # -1 for default capture device
buffer_size: 512              # Frames per capture callback
record_seconds: 5             # Default recording length

# Sweep
sweep_workers: 0              # Parallel detector runs, 0 uses all CPUs

# Output
output: "text"                # text, json or yaml
log_level: "info"             # debug, info, warn or error
debug: false                  # Shorthand for log_level debug
`
)

// Settings holds all application configuration
type Settings struct {
	// Analysis windows
	WindowMs float64 `mapstructure:"window_ms"`
	Overlap  float64 `mapstructure:"overlap"`

	// Detection
	EnergyGateDBFS       float64 `mapstructure:"energy_gate_dbfs"`
	TwistRatio           float64 `mapstructure:"twist_ratio"`
	NoiseFloorPercentile float64 `mapstructure:"noise_floor_percentile"`
	ThresholdMultiplier  float64 `mapstructure:"threshold_multiplier"`
	FallbackNoiseFloor   float64 `mapstructure:"fallback_noise_floor"`
	MinDigitMs           float64 `mapstructure:"min_digit_ms"`
	Strategy             string  `mapstructure:"strategy"`
	SpectralDiagnostics  bool    `mapstructure:"spectral_diagnostics"`

	// Input
	SampleRate float64 `mapstructure:"sample_rate"`

	// Recording
	DeviceIndex   int     `mapstructure:"device_index"`
	BufferSize    int     `mapstructure:"buffer_size"`
	RecordSeconds float64 `mapstructure:"record_seconds"`

	// Sweep
	SweepWorkers int `mapstructure:"sweep_workers"`

	// Output
	Output   string `mapstructure:"output"`
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

var (
	outputFormats = []string{"text", "json", "yaml", "yml"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// setDefaults mirrors DefaultConfig so a partial file still yields a complete
// Settings and every key is visible to AutomaticEnv.
func setDefaults() {
	d := dtmf.DefaultConfig()
	viper.SetDefault("window_ms", d.WindowMs)
	viper.SetDefault("overlap", d.Overlap)
	viper.SetDefault("energy_gate_dbfs", d.EnergyGateDBFS)
	viper.SetDefault("twist_ratio", d.TwistRatio)
	viper.SetDefault("noise_floor_percentile", d.NoiseFloorPercentile)
	viper.SetDefault("threshold_multiplier", d.ThresholdMultiplier)
	viper.SetDefault("fallback_noise_floor", d.FallbackNoiseFloor)
	viper.SetDefault("min_digit_ms", d.MinDigitMs)
	viper.SetDefault("strategy", d.Strategy.String())
	viper.SetDefault("spectral_diagnostics", false)
	viper.SetDefault("sample_rate", 22050)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("buffer_size", 512)
	viper.SetDefault("record_seconds", 5)
	viper.SetDefault("sweep_workers", 0)
	viper.SetDefault("output", "text")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults, the environment and a config file.
// Config file search order: current directory, then $XDG_CONFIG_HOME/dtmfdecoder/
func Init() error {
	setDefaults()

	// DTMFDECODER_WINDOW_MS=100 overrides window_ms
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// If no config is found, create the default in the XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks every setting and reports all problems at once.
// Limits that depend on the recording, such as a window longer than the
// buffer, are checked by the detector.
func (s *Settings) Validate() error {
	var errs []error

	// Analysis windows
	if !(s.WindowMs > 0) || math.IsInf(s.WindowMs, 0) {
		errs = append(errs, fmt.Errorf("window_ms must be positive, got %v", s.WindowMs))
	}
	if !(s.Overlap >= 0 && s.Overlap < 1) {
		errs = append(errs, fmt.Errorf("overlap must be in [0, 1), got %v", s.Overlap))
	}

	// Detection
	// Any gate is valid: one above every window's level just yields no regions.
	if !(s.TwistRatio > 1) {
		errs = append(errs, fmt.Errorf("twist_ratio must be greater than 1, got %v", s.TwistRatio))
	}
	if !(s.NoiseFloorPercentile > 0 && s.NoiseFloorPercentile <= 100) {
		errs = append(errs, fmt.Errorf("noise_floor_percentile must be in (0, 100], got %v", s.NoiseFloorPercentile))
	}
	if !(s.ThresholdMultiplier > 0) {
		errs = append(errs, fmt.Errorf("threshold_multiplier must be positive, got %v", s.ThresholdMultiplier))
	}
	if !(s.FallbackNoiseFloor >= 0) {
		errs = append(errs, fmt.Errorf("fallback_noise_floor must not be negative, got %v", s.FallbackNoiseFloor))
	}
	if !(s.MinDigitMs >= 0) {
		errs = append(errs, fmt.Errorf("min_digit_ms must not be negative, got %v", s.MinDigitMs))
	}
	if _, err := dtmf.ParseStrategy(s.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("strategy must be region or window, got %q", s.Strategy))
	}

	// Input: the highest DTMF tone must sit below Nyquist
	if top := dtmf.HighFrequencies()[3]; !(s.SampleRate > 2*top) || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be above %v Hz and at most 192000 Hz, got %v", 2*top, s.SampleRate))
	}

	// Recording
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device index, got %d", s.DeviceIndex))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if !(s.RecordSeconds > 0) || s.RecordSeconds > 3600 {
		errs = append(errs, fmt.Errorf("record_seconds must be in (0, 3600], got %v", s.RecordSeconds))
	}

	// Sweep
	if s.SweepWorkers < 0 {
		errs = append(errs, fmt.Errorf("sweep_workers must not be negative, got %d", s.SweepWorkers))
	}

	// Output
	if !slices.Contains(outputFormats, strings.ToLower(s.Output)) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(outputFormats, ", "), s.Output))
	}
	if !slices.Contains(logLevels, strings.ToLower(s.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), s.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DetectorConfig converts the detection settings for dtmf.NewDetector.
func (s *Settings) DetectorConfig() (dtmf.Config, error) {
	strategy, err := dtmf.ParseStrategy(s.Strategy)
	if err != nil {
		return dtmf.Config{}, err
	}
	return dtmf.Config{
		WindowMs:             s.WindowMs,
		Overlap:              s.Overlap,
		EnergyGateDBFS:       s.EnergyGateDBFS,
		TwistRatio:           s.TwistRatio,
		NoiseFloorPercentile: s.NoiseFloorPercentile,
		ThresholdMultiplier:  s.ThresholdMultiplier,
		FallbackNoiseFloor:   s.FallbackNoiseFloor,
		MinDigitMs:           s.MinDigitMs,
		Strategy:             strategy,
		SpectralDiagnostics:  s.SpectralDiagnostics,
	}, nil
}
