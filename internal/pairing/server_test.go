package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/pwallis/outletd/internal/infrastructure/mqtt"
)

const testSetupCode = "123-45-678"

// fakeTransport records subscriptions and publishes so handlers can be
// driven directly without a broker.
type fakeTransport struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.MessageHandler
	published map[string][][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers:  make(map[string]mqtt.MessageHandler),
		published: make(map[string][][]byte),
	}
}

func (f *fakeTransport) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeTransport) PublishRetained(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

// deliver invokes the subscribed handler for the topic.
func (f *fakeTransport) deliver(t *testing.T, topic string, payload []byte) error {
	t.Helper()
	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription for %s", topic)
	}
	return handler(topic, payload)
}

// lastPublished returns the most recent payload on the topic.
func (f *fakeTransport) lastPublished(t *testing.T, topic string) []byte {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.published[topic]
	if len(msgs) == 0 {
		t.Fatalf("nothing published on %s", topic)
	}
	return msgs[len(msgs)-1]
}

// callRecorder tracks which handlers fired.
type callRecorder struct {
	mu          sync.Mutex
	writes      []bool
	identifies  int
	added       int
	lastRemoved int
}

func (r *callRecorder) handlers() Handlers {
	return Handlers{
		AttributeWrite: func(on bool) {
			r.mu.Lock()
			r.writes = append(r.writes, on)
			r.mu.Unlock()
		},
		Identify: func() {
			r.mu.Lock()
			r.identifies++
			r.mu.Unlock()
		},
		PairingAdded: func() {
			r.mu.Lock()
			r.added++
			r.mu.Unlock()
		},
		LastPairingRemoved: func() {
			r.mu.Lock()
			r.lastRemoved++
			r.mu.Unlock()
		},
	}
}

// testServer wires a server against a real registry and fake transport.
func testServer(t *testing.T) (*Server, *fakeTransport, *Registry, *callRecorder) {
	t.Helper()

	reg := testRegistry(t)
	transport := newFakeTransport()
	rec := &callRecorder{}
	topics := NewTopics("TESTSERIAL01")
	identity := Identity{
		Name:         "Outlet-ABCDEF",
		SerialNumber: "TESTSERIAL01",
		Model:        "S26",
		Manufacturer: "iTEAD",
	}

	srv := NewServer(transport, reg, topics, identity, testSetupCode, 1, rec.handlers())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return srv, transport, reg, rec
}

func pairAddPayload(t *testing.T, controller, code string) []byte {
	t.Helper()
	payload, err := json.Marshal(pairAddRequest{
		ControllerID: controller,
		PublicKey:    "pk",
		SetupCode:    code,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

func TestServerStartPublishesIdentity(t *testing.T) {
	_, transport, _, _ := testServer(t)

	var identity Identity
	payload := transport.lastPublished(t, "outlet/TESTSERIAL01/accessory")
	if err := json.Unmarshal(payload, &identity); err != nil {
		t.Fatalf("unmarshal identity: %v", err)
	}
	if identity.SerialNumber != "TESTSERIAL01" || identity.Paired {
		t.Errorf("identity = %+v, want unpaired TESTSERIAL01", identity)
	}
}

func TestServerPairAdd(t *testing.T) {
	_, transport, reg, rec := testServer(t)

	err := transport.deliver(t, "outlet/TESTSERIAL01/pair/add",
		pairAddPayload(t, "controller-1", testSetupCode))
	if err != nil {
		t.Fatalf("pair/add handler error = %v", err)
	}

	if has, _ := reg.HasAny(context.Background()); !has {
		t.Error("pairing was not stored")
	}
	if rec.added != 1 {
		t.Errorf("PairingAdded fired %d times, want 1", rec.added)
	}

	// The retained identity now reports paired.
	var identity Identity
	if err := json.Unmarshal(transport.lastPublished(t, "outlet/TESTSERIAL01/accessory"), &identity); err != nil {
		t.Fatalf("unmarshal identity: %v", err)
	}
	if !identity.Paired {
		t.Error("identity.Paired = false after pairing")
	}
}

func TestServerPairAddWrongSetupCode(t *testing.T) {
	_, transport, reg, rec := testServer(t)

	err := transport.deliver(t, "outlet/TESTSERIAL01/pair/add",
		pairAddPayload(t, "controller-1", "000-00-000"))
	if !errors.Is(err, ErrSetupCodeMismatch) {
		t.Fatalf("pair/add error = %v, want ErrSetupCodeMismatch", err)
	}

	if has, _ := reg.HasAny(context.Background()); has {
		t.Error("pairing stored despite wrong setup code")
	}
	if rec.added != 0 {
		t.Error("PairingAdded fired for rejected pairing")
	}
}

func TestServerPairRemoveLast(t *testing.T) {
	_, transport, _, rec := testServer(t)

	for _, c := range []string{"controller-1", "controller-2"} {
		if err := transport.deliver(t, "outlet/TESTSERIAL01/pair/add",
			pairAddPayload(t, c, testSetupCode)); err != nil {
			t.Fatalf("pair/add error = %v", err)
		}
	}

	remove := func(controller string) {
		t.Helper()
		payload, _ := json.Marshal(pairRemoveRequest{ControllerID: controller})
		if err := transport.deliver(t, "outlet/TESTSERIAL01/pair/remove", payload); err != nil {
			t.Fatalf("pair/remove error = %v", err)
		}
	}

	// Removing one of two pairings does not change device state.
	remove("controller-1")
	if rec.lastRemoved != 0 {
		t.Error("LastPairingRemoved fired while a pairing remained")
	}

	// Removing the final pairing does.
	remove("controller-2")
	if rec.lastRemoved != 1 {
		t.Errorf("LastPairingRemoved fired %d times, want 1", rec.lastRemoved)
	}
}

func TestServerPairRemoveUnknownIgnored(t *testing.T) {
	_, transport, _, rec := testServer(t)

	payload, _ := json.Marshal(pairRemoveRequest{ControllerID: "ghost"})
	if err := transport.deliver(t, "outlet/TESTSERIAL01/pair/remove", payload); err != nil {
		t.Fatalf("pair/remove error = %v", err)
	}
	if rec.lastRemoved != 0 {
		t.Error("LastPairingRemoved fired for unknown controller")
	}
}

func TestServerSetOn(t *testing.T) {
	_, transport, _, rec := testServer(t)

	if err := transport.deliver(t, "outlet/TESTSERIAL01/on/set", []byte(`{"on": true}`)); err != nil {
		t.Fatalf("on/set error = %v", err)
	}
	if err := transport.deliver(t, "outlet/TESTSERIAL01/on/set", []byte(`{"on": false}`)); err != nil {
		t.Fatalf("on/set error = %v", err)
	}

	if len(rec.writes) != 2 || rec.writes[0] != true || rec.writes[1] != false {
		t.Errorf("attribute writes = %v, want [true false]", rec.writes)
	}
}

func TestServerSetOnMalformed(t *testing.T) {
	_, transport, _, rec := testServer(t)

	if err := transport.deliver(t, "outlet/TESTSERIAL01/on/set", []byte(`{}`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("on/set error = %v, want ErrMalformedPayload", err)
	}
	if err := transport.deliver(t, "outlet/TESTSERIAL01/on/set", []byte(`not json`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("on/set error = %v, want ErrMalformedPayload", err)
	}
	if len(rec.writes) != 0 {
		t.Error("malformed payload reached the attribute write handler")
	}
}

func TestServerIdentify(t *testing.T) {
	_, transport, _, rec := testServer(t)

	if err := transport.deliver(t, "outlet/TESTSERIAL01/identify", nil); err != nil {
		t.Fatalf("identify error = %v", err)
	}
	if rec.identifies != 1 {
		t.Errorf("Identify fired %d times, want 1", rec.identifies)
	}
}

func TestServerNotifyState(t *testing.T) {
	srv, transport, _, _ := testServer(t)

	srv.NotifyState(true)

	payload := transport.lastPublished(t, "outlet/TESTSERIAL01/on/state")
	var state map[string]bool
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if !state["on"] {
		t.Errorf("published state = %v, want on=true", state)
	}
}
