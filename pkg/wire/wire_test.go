package wire

import (
	"errors"
	"testing"
)

func TestEnvelopeCarriesTwist(t *testing.T) {
	twist := TwistMsg{Linear: Vector3{X: 0.2}, Angular: Vector3{Z: -1}}
	buf := BuildEnvelope("/mybot/cmd_vel", 1234, ContentTypeTwist, EncodeTwist(twist))

	env, err := DecodeEnvelope(buf)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Topic != "/mybot/cmd_vel" {
		t.Errorf("Expected topic /mybot/cmd_vel, got %q", env.Topic)
	}
	if env.TimestampNs != 1234 {
		t.Errorf("Expected timestamp 1234, got %d", env.TimestampNs)
	}
	if env.ContentType != ContentTypeTwist {
		t.Errorf("Expected TWIST content, got %s", env.ContentType)
	}

	got, err := DecodeTwist(env.Payload)
	if err != nil {
		t.Fatalf("DecodeTwist failed: %v", err)
	}
	if got != twist {
		t.Errorf("Expected %+v, got %+v", twist, got)
	}
}

func TestZeroTwistDecodesAsZero(t *testing.T) {
	got, err := DecodeTwist(EncodeTwist(TwistMsg{}))
	if err != nil {
		t.Fatalf("DecodeTwist failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Expected zero twist, got %+v", got)
	}
}

func TestOdometryIdentityOrientationDefault(t *testing.T) {
	// w=1 equals the schema default, so the builder omits it; the reader must
	// still report the identity rotation.
	msg := OdometryMsg{FrameID: "odom", Position: Vector3{X: 1.5}, Orientation: Quaternion{W: 1}}
	got, err := DecodeOdometry(EncodeOdometry(msg))
	if err != nil {
		t.Fatalf("DecodeOdometry failed: %v", err)
	}
	if got != msg {
		t.Errorf("Expected %+v, got %+v", msg, got)
	}
}

func TestDecodeRejectsShortBuffers(t *testing.T) {
	if _, err := DecodeEnvelope([]byte{1, 2}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for envelope, got %v", err)
	}
	if _, err := DecodeTwist(nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for twist, got %v", err)
	}
	if _, err := DecodeOdometry([]byte{0}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for odometry, got %v", err)
	}
}

func TestDecodeRecoversFromCorruptOffsets(t *testing.T) {
	corrupt := []byte{0xff, 0xff, 0x00, 0x00, 0, 0, 0, 0, 0, 0}
	if _, err := DecodeEnvelope(corrupt); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}
