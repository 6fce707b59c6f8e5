package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a YAML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
device:
  name: "Sonoff Outlet"
  serial_number: "037A2BABF19E"
accessory:
  setup_code: "052-58-476"
  ap_name: "sonoff-outlet"
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "Sonoff Outlet" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Sonoff Outlet")
	}
	if cfg.Device.SerialNumber != "037A2BABF19E" {
		t.Errorf("Device.SerialNumber = %q, want %q", cfg.Device.SerialNumber, "037A2BABF19E")
	}

	// Defaults fill in everything the file omits.
	if cfg.GPIO.Relay.Pin != 12 {
		t.Errorf("GPIO.Relay.Pin = %d, want 12 (default)", cfg.GPIO.Relay.Pin)
	}
	if cfg.Reset.SettleDelayMS != 500 {
		t.Errorf("Reset.SettleDelayMS = %d, want 500 (default)", cfg.Reset.SettleDelayMS)
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("MQTT.QoS = %d, want 1 (default)", cfg.MQTT.QoS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "device: [not a mapping")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, validConfig)

	t.Setenv("OUTLETD_MQTT_HOST", "broker.local")
	t.Setenv("OUTLETD_SETUP_CODE", "123-45-678")
	t.Setenv("OUTLETD_DATABASE_PATH", "/var/lib/outletd/outletd.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.Accessory.SetupCode != "123-45-678" {
		t.Errorf("Accessory.SetupCode = %q, want env override", cfg.Accessory.SetupCode)
	}
	if cfg.Database.Path != "/var/lib/outletd/outletd.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing serial",
			mutate:  func(c *Config) { c.Device.SerialNumber = "" },
			wantErr: "serial_number",
		},
		{
			name:    "missing setup code",
			mutate:  func(c *Config) { c.Accessory.SetupCode = "" },
			wantErr: "setup_code",
		},
		{
			name:    "malformed setup code",
			mutate:  func(c *Config) { c.Accessory.SetupCode = "12345678" },
			wantErr: "XXX-XX-XXX",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "qos",
		},
		{
			name:    "duplicate pins",
			mutate:  func(c *Config) { c.GPIO.LED.Pin = c.GPIO.Relay.Pin },
			wantErr: "distinct",
		},
		{
			name:    "long press shorter than press window",
			mutate:  func(c *Config) { c.GPIO.Button.LongPressMS = 100 },
			wantErr: "long_press_ms",
		},
		{
			name:    "invalid update port",
			mutate:  func(c *Config) { c.Update.Port = 0 },
			wantErr: "update.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Device.SerialNumber = "037A2BABF19E"
			cfg.Accessory.SetupCode = "052-58-476"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetSettleDelay(); got != 500*time.Millisecond {
		t.Errorf("GetSettleDelay() = %v, want 500ms", got)
	}
	if got := cfg.GetEraseDelay(); got != time.Second {
		t.Errorf("GetEraseDelay() = %v, want 1s", got)
	}
	if got := cfg.GPIO.Button.GetLongPress(); got != 5*time.Second {
		t.Errorf("GetLongPress() = %v, want 5s", got)
	}
	if got := cfg.Provisioning.GetProbeInterval(); got != 2*time.Second {
		t.Errorf("GetProbeInterval() = %v, want 2s", got)
	}
}
