package processing

import (
	"io"
	"testing"

	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

func newTestRegistry() *TopicRegistry {
	return NewTopicRegistry(customlog.NewWriterLogger("error", io.Discard))
}

func TestLoadFromConfigAddsKeypadAndOdometryTopics(t *testing.T) {
	cfg := config.Default()
	cfg.Odometry.Enabled = true
	cfg.TopicMappings = []config.TopicMapping{
		{RosTopic: "/battery", MessageType: "sensor_msgs/msg/BatteryState", Direction: config.DirectionInbound},
	}

	r := newTestRegistry()
	r.LoadFromConfig(cfg)

	topics := r.GetAllTopics()
	if len(topics) != 3 {
		t.Fatalf("Expected 3 topics, got %d: %+v", len(topics), topics)
	}

	info, ok := r.GetTopicInfo(cfg.Keypad.Topic)
	if !ok {
		t.Fatalf("Command topic %s missing", cfg.Keypad.Topic)
	}
	if info.Direction != config.DirectionOutbound {
		t.Errorf("Expected outbound command topic, got %s", info.Direction)
	}
	if _, ok := r.GetTopicInfo(cfg.Odometry.Topic); !ok {
		t.Errorf("Odometry topic missing")
	}
}

func TestLoadFromConfigPrefersConfiguredMapping(t *testing.T) {
	cfg := config.Default()
	cfg.TopicMappings = []config.TopicMapping{
		{RosTopic: cfg.Keypad.Topic, MessageType: "geometry_msgs/msg/TwistStamped", Direction: config.DirectionOutbound},
	}

	r := newTestRegistry()
	r.LoadFromConfig(cfg)

	info, ok := r.GetTopicInfo(cfg.Keypad.Topic)
	if !ok || info.MessageType != "geometry_msgs/msg/TwistStamped" {
		t.Errorf("Expected configured mapping to win, got %+v", info)
	}
	if n := len(r.GetAllTopics()); n != 1 {
		t.Errorf("Expected 1 topic, got %d", n)
	}
}

func TestLoadFromConfigSkipsDisabledOdometry(t *testing.T) {
	cfg := config.Default()
	cfg.Odometry.Enabled = false

	r := newTestRegistry()
	r.LoadFromConfig(cfg)

	if _, ok := r.GetTopicInfo(cfg.Odometry.Topic); ok {
		t.Errorf("Disabled odometry topic should not be registered")
	}
}

func TestRecordMessageAndError(t *testing.T) {
	cfg := config.Default()
	r := newTestRegistry()
	r.LoadFromConfig(cfg)

	r.RecordMessage(cfg.Keypad.Topic, 100)
	r.RecordMessage(cfg.Keypad.Topic, 200)
	r.RecordError(cfg.Keypad.Topic)

	info, _ := r.GetTopicInfo(cfg.Keypad.Topic)
	if info.Count != 2 || info.Errors != 1 || info.LastSeenNs != 200 {
		t.Errorf("Unexpected stats %+v", info)
	}

	// Unknown topics are created on first use.
	r.RecordMessage("/unknown", 5)
	if info, ok := r.GetTopicInfo("/unknown"); !ok || info.Count != 1 {
		t.Errorf("Expected /unknown to be tracked, got %+v", info)
	}
}

func TestReloadKeepsCounters(t *testing.T) {
	cfg := config.Default()
	r := newTestRegistry()
	r.LoadFromConfig(cfg)
	r.RecordMessage(cfg.Keypad.Topic, 1)

	r.LoadFromConfig(cfg)
	info, _ := r.GetTopicInfo(cfg.Keypad.Topic)
	if info.Count != 1 {
		t.Errorf("Expected counters to survive reload, got %+v", info)
	}
}
