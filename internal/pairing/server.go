package pairing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/pwallis/outletd/internal/infrastructure/mqtt"
)

// Transport is the broker interface the server needs. *mqtt.Client
// satisfies it; tests substitute a fake.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishRetained(topic string, payload []byte) error
}

// Handlers are the callbacks the server raises toward the event loop.
// All handlers must be non-blocking; they run on broker goroutines.
type Handlers struct {
	// AttributeWrite is raised for a remote on/off write. The origin
	// already knows the new value, so the write must not be echoed back.
	AttributeWrite func(on bool)

	// Identify is raised when a controller asks the device to identify itself.
	Identify func()

	// PairingAdded is raised after a verified pairing is stored.
	PairingAdded func()

	// LastPairingRemoved is raised when the final pairing is removed and
	// the device returns to the unpaired state.
	LastPairingRemoved func()
}

// Logger defines the logging interface used by the Server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Server bridges paired controllers to the device over MQTT.
//
// It verifies pair/add requests against the setup code, maintains the
// pairing registry, forwards attribute writes and identify requests to the
// coordinator, and publishes retained state so newly-connected controllers
// see current values immediately.
type Server struct {
	transport Transport
	registry  *Registry
	topics    Topics
	identity  Identity
	setupCode string
	qos       byte
	handlers  Handlers
	logger    Logger

	// ctx bounds registry operations from broker callbacks.
	ctx context.Context
}

// NewServer creates the pairing server. Start must be called before it
// handles any traffic.
func NewServer(transport Transport, registry *Registry, topics Topics, identity Identity, setupCode string, qos byte, handlers Handlers) *Server {
	return &Server{
		transport: transport,
		registry:  registry,
		topics:    topics,
		identity:  identity,
		setupCode: setupCode,
		qos:       qos,
		handlers:  handlers,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the command topics and publishes the retained
// accessory identity. ctx bounds the server's database operations.
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx

	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{s.topics.PairAdd(), s.handlePairAdd},
		{s.topics.PairRemove(), s.handlePairRemove},
		{s.topics.SetOn(), s.handleSetOn},
		{s.topics.Identify(), s.handleIdentify},
	}
	for _, sub := range subs {
		if err := s.transport.Subscribe(sub.topic, s.qos, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.topic, err)
		}
	}

	paired, err := s.registry.HasAny(ctx)
	if err != nil {
		return err
	}
	if err := s.publishIdentity(paired); err != nil {
		return err
	}

	s.logger.Info("pairing server started", "serial", s.identity.SerialNumber)
	return nil
}

// NotifyState publishes the retained on/off state for controllers.
func (s *Server) NotifyState(on bool) {
	payload, _ := json.Marshal(map[string]bool{"on": on})
	if err := s.transport.PublishRetained(s.topics.OnState(), payload); err != nil {
		s.logger.Warn("publishing state failed", "error", err)
	}
}

// publishIdentity publishes the retained accessory record.
func (s *Server) publishIdentity(paired bool) error {
	identity := s.identity
	identity.Paired = paired

	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	if err := s.transport.PublishRetained(s.topics.Accessory(), payload); err != nil {
		return fmt.Errorf("publishing identity: %w", err)
	}
	return nil
}

// pairAddRequest is the pair/add command payload.
type pairAddRequest struct {
	ControllerID string `json:"controller_id"`
	PublicKey    string `json:"public_key"`
	SetupCode    string `json:"setup_code"`
}

// pairRemoveRequest is the pair/remove command payload.
type pairRemoveRequest struct {
	ControllerID string `json:"controller_id"`
}

// setOnRequest is the on/set command payload.
type setOnRequest struct {
	On *bool `json:"on"`
}

func (s *Server) handlePairAdd(topic string, payload []byte) error {
	var req pairAddRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if req.ControllerID == "" {
		return fmt.Errorf("%w: missing controller_id", ErrInvalidPairing)
	}

	// Constant-time compare; the setup code is the only thing standing
	// between the network and a mains relay.
	if subtle.ConstantTimeCompare([]byte(req.SetupCode), []byte(s.setupCode)) != 1 {
		s.logger.Warn("pairing rejected", "controller", req.ControllerID)
		return ErrSetupCodeMismatch
	}

	if err := s.registry.Add(s.ctx, req.ControllerID, req.PublicKey); err != nil {
		return err
	}
	s.logger.Info("controller paired", "controller", req.ControllerID)

	if err := s.publishIdentity(true); err != nil {
		s.logger.Warn("publishing identity failed", "error", err)
	}
	if s.handlers.PairingAdded != nil {
		s.handlers.PairingAdded()
	}
	return nil
}

func (s *Server) handlePairRemove(topic string, payload []byte) error {
	var req pairRemoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	removed, err := s.registry.Remove(s.ctx, req.ControllerID)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Debug("remove for unknown controller ignored", "controller", req.ControllerID)
		return nil
	}
	s.logger.Info("controller unpaired", "controller", req.ControllerID)

	paired, err := s.registry.HasAny(s.ctx)
	if err != nil {
		return err
	}
	if err := s.publishIdentity(paired); err != nil {
		s.logger.Warn("publishing identity failed", "error", err)
	}

	// Only the removal of the final pairing changes device state.
	if !paired && s.handlers.LastPairingRemoved != nil {
		s.handlers.LastPairingRemoved()
	}
	return nil
}

func (s *Server) handleSetOn(topic string, payload []byte) error {
	var req setOnRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if req.On == nil {
		return fmt.Errorf("%w: missing on field", ErrMalformedPayload)
	}

	if s.handlers.AttributeWrite != nil {
		s.handlers.AttributeWrite(*req.On)
	}
	return nil
}

func (s *Server) handleIdentify(topic string, payload []byte) error {
	s.logger.Info("identify requested")
	if s.handlers.Identify != nil {
		s.handlers.Identify()
	}
	return nil
}
