package telemetry

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/pwallis/outletd/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Recorder writes device state history to InfluxDB.
//
// Writes go through the non-blocking batching API so a slow or unreachable
// InfluxDB never stalls event dispatch. Write errors are logged and dropped;
// state history is best effort.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	serial   string
	logger   Logger
	done     chan struct{}
}

// NewRecorder creates a telemetry recorder for the given device serial.
func NewRecorder(cfg config.TelemetryConfig, serial string) *Recorder {
	opts := influxdb2.DefaultOptions()
	if cfg.BatchSize > 0 {
		opts = opts.SetBatchSize(uint(cfg.BatchSize))
	}
	if cfg.FlushInterval > 0 {
		opts = opts.SetFlushInterval(uint(cfg.FlushInterval) * 1000)
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	r := &Recorder{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		serial:   serial,
		logger:   noopLogger{},
		done:     make(chan struct{}),
	}

	go r.drainErrors()
	return r
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// RecordState records a device state snapshot.
func (r *Recorder) RecordState(state string, on bool) {
	point := influxdb2.NewPoint("outlet_state",
		map[string]string{"serial": r.serial},
		map[string]any{"state": state, "on": on},
		time.Now(),
	)
	r.writeAPI.WritePoint(point)
}

// RecordEvent records a one-off device event (gesture, identify, reset).
func (r *Recorder) RecordEvent(kind string) {
	point := influxdb2.NewPoint("outlet_event",
		map[string]string{"serial": r.serial, "kind": kind},
		map[string]any{"count": 1},
		time.Now(),
	)
	r.writeAPI.WritePoint(point)
}

// Close flushes buffered points and shuts the client down.
func (r *Recorder) Close() {
	r.writeAPI.Flush()
	r.client.Close()
	close(r.done)
}

// drainErrors logs asynchronous write failures.
func (r *Recorder) drainErrors() {
	errCh := r.writeAPI.Errors()
	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return
			}
			r.logger.Warn("telemetry write failed", "error", err)
		case <-r.done:
			return
		}
	}
}
