// outletd - Smart Outlet Daemon
//
// This is the main entry point for outletd, the device daemon for a
// single-relay smart outlet. It owns the relay, status LED and button,
// persists device state across power cuts, and bridges paired controllers
// over MQTT once the network is up.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/pwallis/outletd/migrations"

	"github.com/pwallis/outletd/internal/attribute"
	"github.com/pwallis/outletd/internal/coordinator"
	"github.com/pwallis/outletd/internal/gpio"
	"github.com/pwallis/outletd/internal/indicator"
	"github.com/pwallis/outletd/internal/infrastructure/config"
	"github.com/pwallis/outletd/internal/infrastructure/database"
	"github.com/pwallis/outletd/internal/infrastructure/logging"
	"github.com/pwallis/outletd/internal/infrastructure/mqtt"
	"github.com/pwallis/outletd/internal/pairing"
	"github.com/pwallis/outletd/internal/provisioning"
	"github.com/pwallis/outletd/internal/system"
	"github.com/pwallis/outletd/internal/telemetry"
	"github.com/pwallis/outletd/internal/update"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting outletd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	// Restore the persisted on/off attribute before touching hardware,
	// so the relay comes up in its last state.
	attrs := attribute.NewStore(db)
	attrs.SetLogger(log)
	if err := attrs.Load(ctx); err != nil {
		return fmt.Errorf("loading attribute state: %w", err)
	}
	log.Info("attribute state restored", "on", attrs.On())

	// Relay: request the line already at the restored level to avoid a
	// power glitch between request and first write.
	relayLevel := 0
	if attrs.On() != cfg.GPIO.Relay.ActiveLow {
		relayLevel = 1
	}
	relayLine, err := gpio.RequestOutput(cfg.GPIO.Chip, cfg.GPIO.Relay.Pin, relayLevel)
	if err != nil {
		return fmt.Errorf("requesting relay line: %w", err)
	}
	relay := gpio.NewRelay(relayLine, cfg.GPIO.Relay.ActiveLow)
	relay.SetLogger(log)
	defer func() {
		if closeErr := relay.Close(); closeErr != nil {
			log.Error("error releasing relay line", "error", closeErr)
		}
	}()

	// Status LED, initially off.
	ledOff := 0
	if cfg.GPIO.LED.ActiveLow {
		ledOff = 1
	}
	ledLine, err := gpio.RequestOutput(cfg.GPIO.Chip, cfg.GPIO.LED.Pin, ledOff)
	if err != nil {
		return fmt.Errorf("requesting LED line: %w", err)
	}
	defer func() {
		if closeErr := ledLine.Close(); closeErr != nil {
			log.Error("error releasing LED line", "error", closeErr)
		}
	}()

	player := indicator.NewPlayer(ledLine, cfg.GPIO.LED.ActiveLow)
	player.SetLogger(log)
	player.Start(ctx)

	// Provisioning store and pairing registry feed the initial device state.
	network := provisioning.NewStore(cfg.Provisioning.ConfigPath)
	registry := pairing.NewRegistry(db)
	paired, err := registry.HasAny(ctx)
	if err != nil {
		return fmt.Errorf("reading pairing registry: %w", err)
	}
	log.Info("startup state",
		"provisioned", network.HasStoredConfig(),
		"paired", paired,
	)

	// MQTT and the pairing server come up lazily: the broker is only
	// reachable once the network is, so networkInit runs on the first
	// confirmed connection (at most once).
	var mqttClient *mqtt.Client
	defer func() {
		if mqttClient != nil {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}
	}()

	var coord *coordinator.Coordinator
	topics := pairing.NewTopics(cfg.Device.SerialNumber)

	networkInit := func(initCtx context.Context) error {
		client, err := mqtt.Connect(cfg.MQTT, topics.Status())
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log)
		client.SetOnConnect(func() { log.Info("MQTT reconnected") })
		client.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		mqttClient = client
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		identity := pairing.Identity{
			Name:             pairing.AccessoryName(cfg.Device.Name),
			SerialNumber:     cfg.Device.SerialNumber,
			Model:            cfg.Device.Model,
			Manufacturer:     cfg.Device.Manufacturer,
			FirmwareRevision: cfg.Device.FirmwareRevision,
		}
		server := pairing.NewServer(client, registry, topics, identity, cfg.Accessory.SetupCode, byte(cfg.MQTT.QoS), pairing.Handlers{
			AttributeWrite: func(on bool) {
				coord.Submit(coordinator.AttributeWriteEvent{On: on})
			},
			Identify: func() {
				coord.Submit(coordinator.IdentifyEvent{})
			},
			PairingAdded: func() {
				coord.Submit(coordinator.PairingEvent{Change: coordinator.PairingAdded})
			},
			LastPairingRemoved: func() {
				coord.Submit(coordinator.PairingEvent{Change: coordinator.LastPairingRemoved})
			},
		})
		server.SetLogger(log)
		if err := server.Start(initCtx); err != nil {
			return fmt.Errorf("starting pairing server: %w", err)
		}

		// Local toggles notify controllers; the initial retained state is
		// published once so late subscribers see it.
		attrs.Subscribe(server.NotifyState)
		server.NotifyState(attrs.On())

		if cfg.Update.Enabled {
			updateServer := update.NewServer(cfg.Update, func() update.Status {
				return update.Status{
					State:    coord.State().String(),
					On:       attrs.On(),
					Firmware: cfg.Device.FirmwareRevision,
					Serial:   cfg.Device.SerialNumber,
				}
			})
			updateServer.SetLogger(log)
			if err := updateServer.Start(ctx); err != nil {
				return fmt.Errorf("starting update listener: %w", err)
			}
		}

		return nil
	}

	coord = coordinator.New(relay, attrs, player, network, registry, system.NewRestarter(), networkInit, coordinator.Options{
		Provisioned: network.HasStoredConfig(),
		Paired:      paired,
		SettleDelay: cfg.GetSettleDelay(),
		EraseDelay:  cfg.GetEraseDelay(),
	})
	coord.SetLogger(log)

	// State history (optional).
	if cfg.Telemetry.Enabled {
		recorder := telemetry.NewRecorder(cfg.Telemetry, cfg.Device.SerialNumber)
		recorder.SetLogger(log)
		defer func() {
			log.Info("closing telemetry")
			recorder.Close()
		}()
		coord.SetTelemetry(recorder)
		log.Info("telemetry enabled", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	}

	go coord.Run(ctx)

	// Button gestures feed the coordinator.
	button, err := gpio.NewButton(cfg.GPIO.Chip, cfg.GPIO.Button, func(g gpio.Gesture) {
		log.Debug("button gesture", "gesture", g.String())
		coord.Submit(coordinator.ButtonEvent{Gesture: g})
	})
	if err != nil {
		return fmt.Errorf("requesting button line: %w", err)
	}
	defer func() {
		if closeErr := button.Close(); closeErr != nil {
			log.Error("error releasing button line", "error", closeErr)
		}
	}()

	// Network monitor feeds the coordinator; the probe defaults to the
	// MQTT broker address.
	provCfg := cfg.Provisioning
	if provCfg.ProbeAddress == "" {
		provCfg.ProbeAddress = fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	monitor := provisioning.NewMonitor(network, provCfg, func(s provisioning.Status) {
		coord.Submit(coordinator.ProvisioningEvent{Status: s})
	})
	monitor.SetLogger(log)
	monitor.Start(ctx)

	// Verify infrastructure is healthy
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("outletd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses OUTLETD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OUTLETD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
