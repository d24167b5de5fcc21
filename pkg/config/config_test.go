package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
version: "1.0"
config_id: "test-keypad-config"
lastUpdated: "2024-01-01T00:00:00Z"
robot_id: "test-robot"

keypad:
  topic: "/test/cmd_vel"
  interval_ms: 50
  linear_speed: 0.5
  holonomic: true

odometry:
  enabled: true

topic_mappings:
  - ros_topic: "/test/cmd_vel"
    message_type: "geometry_msgs/msg/Twist"
    direction: "INBOUND"
  - ros_topic: "/odom"
    message_type: "nav_msgs/msg/Odometry"
`
	configPath := filepath.Join(tempDir, "teleop.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.ConfigID != "test-keypad-config" {
		t.Errorf("Expected config_id test-keypad-config, got %s", config.ConfigID)
	}
	if config.Keypad.Topic != "/test/cmd_vel" {
		t.Errorf("Expected topic /test/cmd_vel, got %s", config.Keypad.Topic)
	}
	if config.Keypad.Interval() != 50*time.Millisecond {
		t.Errorf("Expected 50ms interval, got %v", config.Keypad.Interval())
	}
	if config.Keypad.LinearSpeed != 0.5 {
		t.Errorf("Expected linear speed 0.5, got %v", config.Keypad.LinearSpeed)
	}
	// angular speed omitted, default applies
	if config.Keypad.AngularSpeed != DefaultAngularSpeed {
		t.Errorf("Expected default angular speed, got %v", config.Keypad.AngularSpeed)
	}
	if !config.Keypad.Holonomic {
		t.Errorf("Expected holonomic true")
	}
	if config.Odometry.Topic != DefaultOdometryTopic || !config.Odometry.Enabled {
		t.Errorf("Unexpected odometry config: %+v", config.Odometry)
	}
	if config.NodeName != DefaultNodeName {
		t.Errorf("Expected default node name, got %s", config.NodeName)
	}
	if len(config.TopicMappings) != 2 {
		t.Fatalf("Expected 2 topic mappings, got %d", len(config.TopicMappings))
	}
	if config.TopicMappings[1].Direction != DirectionOutbound {
		t.Errorf("Expected default OUTBOUND direction, got %s", config.TopicMappings[1].Direction)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Keypad.Topic != "/mybot/cmd_vel" {
		t.Errorf("Expected /mybot/cmd_vel, got %s", cfg.Keypad.Topic)
	}
	if cfg.Keypad.Interval() != 80*time.Millisecond {
		t.Errorf("Expected 80ms, got %v", cfg.Keypad.Interval())
	}
	if cfg.Keypad.LinearSpeed != 0.2 || cfg.Keypad.AngularSpeed != 1.0 {
		t.Errorf("Unexpected speeds: %+v", cfg.Keypad)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative interval", func(c *Config) { c.Keypad.IntervalMs = -5 }, "interval_ms"},
		{"linear too fast", func(c *Config) { c.Keypad.LinearSpeed = 1.5 }, "linear_speed"},
		{"negative angular", func(c *Config) { c.Keypad.AngularSpeed = -0.1 }, "angular_speed"},
		{"bad direction", func(c *Config) {
			c.TopicMappings = []TopicMapping{{RosTopic: "/x", Direction: "SIDEWAYS"}}
		}, "unknown direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTopicMappingHelpers(t *testing.T) {
	config := &Config{
		TopicMappings: []TopicMapping{
			{RosTopic: "/mybot/cmd_vel", MessageType: "geometry_msgs/msg/Twist", Direction: DirectionInbound},
			{RosTopic: "/odom", MessageType: "nav_msgs/msg/Odometry", Direction: DirectionOutbound},
			{RosTopic: "/battery_state", MessageType: "sensor_msgs/msg/BatteryState", Direction: DirectionOutbound},
		},
	}

	if got := config.GetTopicMappingsByDirection(DirectionInbound); len(got) != 1 {
		t.Errorf("Expected 1 inbound topic, got %d", len(got))
	}
	if got := config.GetTopicMappingsByDirection(DirectionOutbound); len(got) != 2 {
		t.Errorf("Expected 2 outbound topics, got %d", len(got))
	}

	odom, found := config.GetTopicMapping("/odom")
	if !found {
		t.Fatalf("Expected to find /odom")
	}
	if odom.MessageType != "nav_msgs/msg/Odometry" {
		t.Errorf("Unexpected message type %s", odom.MessageType)
	}
	if _, found := config.GetTopicMapping("/nonexistent"); found {
		t.Errorf("Expected not to find /nonexistent")
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/keypad"
server:
  http_port: 9090
zeromq:
  request_bind_address: "tcp://*:6666"
  publish_bind_address: "tcp://*:7777"
  odometry_connect_address: "tcp://robot:7778"
data:
  directory: "/data/keypad"
  teleop_config_file: "teleop.yaml"
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	bootstrapCfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.ZeroMQ.OdometryConnectAddress != "tcp://robot:7778" {
		t.Errorf("Unexpected odometry address '%s'", bootstrapCfg.ZeroMQ.OdometryConnectAddress)
	}
	if got := bootstrapCfg.Data.TeleopConfigPath(); got != filepath.Join("/data/keypad", "teleop.yaml") {
		t.Errorf("Unexpected teleop config path '%s'", got)
	}
}

func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContentMissing := `
logging:
  level: "info"
zeromq:
  publish_bind_address: "tcp://*:7777"
data:
  directory: "/data"
  teleop_config_file: "teleop.yaml"
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContentMissing), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	_, err := LoadBootstrapConfig(tempDir)
	if err == nil {
		t.Fatalf("Expected error when loading bootstrap config with missing required fields, but got nil")
	}

	expectedErrorSubstr := "missing required field in bootstrap config: zeromq.request_bind_address"
	if !strings.Contains(err.Error(), expectedErrorSubstr) {
		t.Errorf("Expected error message to contain '%s', but got: %v", expectedErrorSubstr, err)
	}
}

func TestLoadBootstrapConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()
	content := `
zeromq:
  request_bind_address: "tcp://*:6666"
  publish_bind_address: "tcp://*:7777"
data:
  directory: "/data"
  teleop_config_file: "teleop.yaml"
`
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level info, got %s", cfg.Logging.Level)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.HTTPPort)
	}
}
