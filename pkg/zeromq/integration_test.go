//go:build integration

package zeromq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/open-teleop/keypad/domain/teleop"
	"github.com/open-teleop/keypad/pkg/config"
	"github.com/open-teleop/keypad/pkg/wire"
	"github.com/pebbe/zmq4"
)

// Exercises real sockets on loopback. Run with: go test -tags integration ./pkg/zeromq/
func TestLiveRequestAndPublish(t *testing.T) {
	cfg := config.ZeroMQBootstrap{
		RequestBindAddress: "tcp://127.0.0.1:25555",
		PublishBindAddress: "tcp://127.0.0.1:25556",
	}
	svc, err := NewZeroMQService(cfg, testLogger())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	events := &recordedEvents{}
	RegisterHandlers(svc, staticConfig{config.Default()}, events, testLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}
	defer svc.Stop()

	req, err := zmq4.NewSocket(zmq4.REQ)
	if err != nil {
		t.Fatalf("Failed to create REQ socket: %v", err)
	}
	defer req.Close()
	req.SetLinger(0)
	req.SetRcvtimeo(5 * time.Second)
	if err := req.Connect(cfg.RequestBindAddress); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	if _, err := req.SendBytes([]byte(`{"type":"CONFIG_REQUEST"}`), 0); err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	resp, err := req.RecvBytes(0)
	if err != nil {
		t.Fatalf("Failed to receive response: %v", err)
	}
	var msg ZeroMQMessage
	if err := json.Unmarshal(resp, &msg); err != nil || msg.Type != MsgTypeConfigResponse {
		t.Fatalf("Expected CONFIG_RESPONSE, got %s", resp)
	}

	if _, err := req.SendBytes([]byte(`{"type":"KEYPAD_EVENT","data":{"event":"release"}}`), 0); err != nil {
		t.Fatalf("Failed to send keypad event: %v", err)
	}
	if _, err := req.RecvBytes(0); err != nil {
		t.Fatalf("Failed to receive ack: %v", err)
	}
	if got := events.snapshot(); len(got) != 1 || got[0].Event != teleop.EventRelease {
		t.Errorf("Expected one release event, got %+v", got)
	}

	sub, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		t.Fatalf("Failed to create SUB socket: %v", err)
	}
	defer sub.Close()
	sub.SetLinger(0)
	sub.SetRcvtimeo(200 * time.Millisecond)
	sub.SetSubscribe("/cmd")
	if err := sub.Connect(cfg.PublishBindAddress); err != nil {
		t.Fatalf("Failed to connect SUB: %v", err)
	}

	sink := NewCommandSink(svc, "/cmd", nil)
	// PUB drops messages until the subscription propagates.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := sink.Transmit(teleop.Command{LinearX: 0.2}); err != nil {
			t.Fatalf("Transmit failed: %v", err)
		}
		frames, err := sub.RecvMessageBytes(0)
		if err != nil {
			continue
		}
		env, err := wire.DecodeEnvelope(frames[1])
		if err != nil {
			t.Fatalf("DecodeEnvelope failed: %v", err)
		}
		twist, err := wire.DecodeTwist(env.Payload)
		if err != nil || twist.Linear.X != 0.2 {
			t.Fatalf("Unexpected twist %+v (%v)", twist, err)
		}
		return
	}
	t.Fatalf("No command received on SUB socket")
}
