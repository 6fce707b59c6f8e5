package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for outletd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device       DeviceConfig       `yaml:"device"`
	Accessory    AccessoryConfig    `yaml:"accessory"`
	GPIO         GPIOConfig         `yaml:"gpio"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Update       UpdateConfig       `yaml:"update"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Reset        ResetConfig        `yaml:"reset"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// DeviceConfig contains the accessory identity published to paired controllers.
type DeviceConfig struct {
	Name             string `yaml:"name"`
	SerialNumber     string `yaml:"serial_number"`
	Model            string `yaml:"model"`
	Manufacturer     string `yaml:"manufacturer"`
	FirmwareRevision string `yaml:"firmware_revision"`
}

// AccessoryConfig contains pairing and provisioning credentials.
// These are opaque pass-through values consumed by the pairing server
// and the provisioning access point.
type AccessoryConfig struct {
	// SetupCode is the pairing credential in XXX-XX-XXX form.
	SetupCode string `yaml:"setup_code"`

	// APName and APPassword identify the provisioning access point
	// advertised while the device has no stored network credentials.
	APName     string `yaml:"ap_name"`
	APPassword string `yaml:"ap_password"`
}

// GPIOConfig contains the pin wiring of the relay, status LED and button.
type GPIOConfig struct {
	// Chip is the GPIO character device name (e.g., "gpiochip0").
	Chip   string       `yaml:"chip"`
	Relay  PinConfig    `yaml:"relay"`
	LED    PinConfig    `yaml:"led"`
	Button ButtonConfig `yaml:"button"`
}

// PinConfig describes a single output line.
type PinConfig struct {
	Pin int `yaml:"pin"`

	// ActiveLow inverts the logical level: true means a low electrical
	// level closes the relay / lights the LED.
	ActiveLow bool `yaml:"active_low"`
}

// ButtonConfig describes the push-button input line and gesture timing.
type ButtonConfig struct {
	Pin       int  `yaml:"pin"`
	ActiveLow bool `yaml:"active_low"`

	// DebounceMS is the minimum interval between accepted edges (milliseconds).
	DebounceMS int `yaml:"debounce_ms"`

	// PressWindowMS is how long after a release the classifier waits for a
	// follow-up press before emitting the accumulated click count.
	PressWindowMS int `yaml:"press_window_ms"`

	// LongPressMS is how long the button must be held to register a long press.
	LongPressMS int `yaml:"long_press_ms"`

	// MaxRepeatPresses caps the click count (2 = single/double press).
	MaxRepeatPresses int `yaml:"max_repeat_presses"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the pairing transport.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// ProvisioningConfig contains network-provisioning settings.
type ProvisioningConfig struct {
	// ConfigPath is where stored network credentials live. Erasing this
	// file is the factory-reset step for provisioning.
	ConfigPath string `yaml:"config_path"`

	// ProbeAddress is a host:port dialled to decide whether the network
	// is actually reachable. Defaults to the MQTT broker address.
	ProbeAddress string `yaml:"probe_address"`

	// ProbeIntervalMS is how often connectivity is re-evaluated.
	ProbeIntervalMS int `yaml:"probe_interval_ms"`

	// ProbeTimeoutMS bounds each connectivity probe.
	ProbeTimeoutMS int `yaml:"probe_timeout_ms"`
}

// UpdateConfig contains the firmware-update listener settings.
type UpdateConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	StagingDir string `yaml:"staging_dir"`
}

// TelemetryConfig contains InfluxDB state-history settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// ResetConfig contains the factory-reset sequencing delays (milliseconds).
//
// The settle delay gives a person time to see the reset signal on the LED
// before anything is erased. The erase delay lets each storage wipe complete
// durably before the next step.
type ResetConfig struct {
	SettleDelayMS int `yaml:"settle_delay_ms"`
	EraseDelayMS  int `yaml:"erase_delay_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// setupCodePattern validates the XXX-XX-XXX pairing credential format.
var setupCodePattern = regexp.MustCompile(`^\d{3}-\d{2}-\d{3}$`)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: OUTLETD_SECTION_KEY
// For example: OUTLETD_DATABASE_PATH, OUTLETD_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// GPIO defaults match the Sonoff S26 wiring: relay on 12, LED on 13
// (active low), button on 0 (active low).
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:             "Outlet",
			Model:            "S26",
			Manufacturer:     "iTEAD",
			FirmwareRevision: "dev",
		},
		Accessory: AccessoryConfig{
			APName: "outlet-setup",
		},
		GPIO: GPIOConfig{
			Chip:  "gpiochip0",
			Relay: PinConfig{Pin: 12},
			LED:   PinConfig{Pin: 13, ActiveLow: true},
			Button: ButtonConfig{
				Pin:              0,
				ActiveLow:        true,
				DebounceMS:       20,
				PressWindowMS:    350,
				LongPressMS:      5000,
				MaxRepeatPresses: 2,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/outletd.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "outletd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Provisioning: ProvisioningConfig{
			ConfigPath:      "./data/network.json",
			ProbeIntervalMS: 2000,
			ProbeTimeoutMS:  2000,
		},
		Update: UpdateConfig{
			Enabled:    true,
			Host:       "0.0.0.0",
			Port:       8266,
			StagingDir: "./data/firmware",
		},
		Reset: ResetConfig{
			SettleDelayMS: 500,
			EraseDelayMS:  1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: OUTLETD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("OUTLETD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("OUTLETD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("OUTLETD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("OUTLETD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Accessory credentials (IMPORTANT: always override in production)
	if v := os.Getenv("OUTLETD_SETUP_CODE"); v != "" {
		cfg.Accessory.SetupCode = v
	}
	if v := os.Getenv("OUTLETD_AP_PASSWORD"); v != "" {
		cfg.Accessory.APPassword = v
	}

	// Telemetry
	if v := os.Getenv("OUTLETD_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.SerialNumber == "" {
		errs = append(errs, "device.serial_number is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Pairing requires a setup code. A missing or malformed code would let
	// any controller on the network pair with a device that switches mains
	// power, so this is a hard failure.
	if c.Accessory.SetupCode == "" {
		errs = append(errs, "accessory.setup_code is required (set OUTLETD_SETUP_CODE environment variable)")
	} else if !setupCodePattern.MatchString(c.Accessory.SetupCode) {
		errs = append(errs, "accessory.setup_code must match XXX-XX-XXX")
	}

	if c.Update.Enabled {
		if c.Update.Port < 1 || c.Update.Port > 65535 {
			errs = append(errs, "update.port must be between 1 and 65535")
		}
		if c.Update.StagingDir == "" {
			errs = append(errs, "update.staging_dir is required when update.enabled")
		}
	}

	if c.GPIO.Relay.Pin == c.GPIO.LED.Pin || c.GPIO.Relay.Pin == c.GPIO.Button.Pin || c.GPIO.LED.Pin == c.GPIO.Button.Pin {
		errs = append(errs, "gpio pins must be distinct")
	}

	if c.GPIO.Button.LongPressMS <= c.GPIO.Button.PressWindowMS {
		errs = append(errs, "gpio.button.long_press_ms must exceed press_window_ms")
	}

	if c.Reset.SettleDelayMS < 0 || c.Reset.EraseDelayMS < 0 {
		errs = append(errs, "reset delays must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetSettleDelay returns the reset settle delay as a Duration.
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Reset.SettleDelayMS) * time.Millisecond
}

// GetEraseDelay returns the per-erase reset delay as a Duration.
func (c *Config) GetEraseDelay() time.Duration {
	return time.Duration(c.Reset.EraseDelayMS) * time.Millisecond
}

// GetDebounce returns the button debounce interval as a Duration.
func (c *ButtonConfig) GetDebounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// GetPressWindow returns the click-grouping window as a Duration.
func (c *ButtonConfig) GetPressWindow() time.Duration {
	return time.Duration(c.PressWindowMS) * time.Millisecond
}

// GetLongPress returns the long-press threshold as a Duration.
func (c *ButtonConfig) GetLongPress() time.Duration {
	return time.Duration(c.LongPressMS) * time.Millisecond
}

// GetProbeInterval returns the provisioning probe interval as a Duration.
func (c *ProvisioningConfig) GetProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMS) * time.Millisecond
}

// GetProbeTimeout returns the provisioning probe timeout as a Duration.
func (c *ProvisioningConfig) GetProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}
