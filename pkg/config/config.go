package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the keypad.
const (
	DefaultCommandTopic  = "/mybot/cmd_vel"
	DefaultOdometryTopic = "odom"
	DefaultNodeName      = "virtual_keyboard"
	DefaultIntervalMs    = 80
	DefaultLinearSpeed   = 0.2
	DefaultAngularSpeed  = 1.0
)

// Direction values for topic mappings
const (
	DirectionOutbound = "OUTBOUND"
	DirectionInbound  = "INBOUND"
)

// Config is the operational configuration. It can be replaced at runtime
// through the config API.
type Config struct {
	Version       string         `yaml:"version" json:"version"`
	ConfigID      string         `yaml:"config_id" json:"config_id"`
	LastUpdated   string         `yaml:"lastUpdated" json:"lastUpdated"`
	RobotID       string         `yaml:"robot_id" json:"robot_id"`
	NodeName      string         `yaml:"node_name" json:"node_name"`
	Keypad        KeypadConfig   `yaml:"keypad" json:"keypad"`
	Odometry      OdometryConfig `yaml:"odometry" json:"odometry"`
	TopicMappings []TopicMapping `yaml:"topic_mappings" json:"topic_mappings"`
}

// KeypadConfig tunes the command publisher and the button table.
type KeypadConfig struct {
	Topic        string  `yaml:"topic" json:"topic"`
	IntervalMs   int     `yaml:"interval_ms" json:"interval_ms"`
	LinearSpeed  float64 `yaml:"linear_speed" json:"linear_speed"`
	AngularSpeed float64 `yaml:"angular_speed" json:"angular_speed"`
	Holonomic    bool    `yaml:"holonomic" json:"holonomic"`
}

// Interval returns the tick interval as a duration.
func (k KeypadConfig) Interval() time.Duration {
	return time.Duration(k.IntervalMs) * time.Millisecond
}

// OdometryConfig controls the passive odometry hook.
type OdometryConfig struct {
	Topic   string `yaml:"topic" json:"topic"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// TopicMapping describes a ROS topic bridged by the robot-side gateway.
type TopicMapping struct {
	RosTopic    string `yaml:"ros_topic" json:"ros_topic"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Direction   string `yaml:"direction" json:"direction"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads and parses an operational config file, then applies
// defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML bytes into a validated Config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the built-in defaults.
func (c *Config) ApplyDefaults() {
	if c.NodeName == "" {
		c.NodeName = DefaultNodeName
	}
	if c.Keypad.Topic == "" {
		c.Keypad.Topic = DefaultCommandTopic
	}
	if c.Keypad.IntervalMs == 0 {
		c.Keypad.IntervalMs = DefaultIntervalMs
	}
	if c.Keypad.LinearSpeed == 0 {
		c.Keypad.LinearSpeed = DefaultLinearSpeed
	}
	if c.Keypad.AngularSpeed == 0 {
		c.Keypad.AngularSpeed = DefaultAngularSpeed
	}
	if c.Odometry.Topic == "" {
		c.Odometry.Topic = DefaultOdometryTopic
	}
	for i := range c.TopicMappings {
		if c.TopicMappings[i].Direction == "" {
			c.TopicMappings[i].Direction = DirectionOutbound
		}
	}
}

// Validate checks the keypad values are usable. Speeds are normalized, so
// they must fall in (0, 1].
func (c *Config) Validate() error {
	if c.Keypad.IntervalMs <= 0 {
		return fmt.Errorf("validation failed: keypad.interval_ms must be positive, got %d", c.Keypad.IntervalMs)
	}
	if c.Keypad.LinearSpeed <= 0 || c.Keypad.LinearSpeed > 1 {
		return fmt.Errorf("validation failed: keypad.linear_speed must be in (0, 1], got %v", c.Keypad.LinearSpeed)
	}
	if c.Keypad.AngularSpeed <= 0 || c.Keypad.AngularSpeed > 1 {
		return fmt.Errorf("validation failed: keypad.angular_speed must be in (0, 1], got %v", c.Keypad.AngularSpeed)
	}
	for _, m := range c.TopicMappings {
		if m.Direction != DirectionOutbound && m.Direction != DirectionInbound {
			return fmt.Errorf("validation failed: topic %s has unknown direction %q", m.RosTopic, m.Direction)
		}
	}
	return nil
}

// GetTopicMappingsByDirection returns topic mappings filtered by direction
func (c *Config) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping
	for _, mapping := range c.TopicMappings {
		if mapping.Direction == direction {
			result = append(result, mapping)
		}
	}
	return result
}

// GetTopicMapping returns the mapping for a ROS topic name
func (c *Config) GetTopicMapping(rosTopic string) (TopicMapping, bool) {
	for _, mapping := range c.TopicMappings {
		if mapping.RosTopic == rosTopic {
			return mapping, true
		}
	}
	return TopicMapping{}, false
}
