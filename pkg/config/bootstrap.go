package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is looked up inside the directory passed with --config-dir.
const BootstrapFileName = "keypad_config.yaml"

// BootstrapConfig holds process-level settings read once at startup.
type BootstrapConfig struct {
	Logging LoggingConfig   `yaml:"logging"`
	Server  ServerConfig    `yaml:"server"`
	ZeroMQ  ZeroMQBootstrap `yaml:"zeromq"`
	Data    DataConfig      `yaml:"data"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds socket addresses. The publish socket carries velocity
// commands; the request socket accepts keypad events from remote clients; the
// odometry socket connects to the robot-side bridge.
type ZeroMQBootstrap struct {
	RequestBindAddress     string `yaml:"request_bind_address"`
	PublishBindAddress     string `yaml:"publish_bind_address"`
	OdometryConnectAddress string `yaml:"odometry_connect_address,omitempty"`
}

// DataConfig points at the operational configuration file
type DataConfig struct {
	Directory            string `yaml:"directory"`
	TeleopConfigFilename string `yaml:"teleop_config_file"`
}

// TeleopConfigPath returns the full path of the operational config file.
func (d DataConfig) TeleopConfigPath() string {
	return filepath.Join(d.Directory, d.TeleopConfigFilename)
}

// LoadBootstrapConfig loads configDir/keypad_config.yaml.
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if bootstrapCfg.ZeroMQ.PublishBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if bootstrapCfg.ZeroMQ.RequestBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.request_bind_address")
	}
	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if bootstrapCfg.Data.TeleopConfigFilename == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.teleop_config_file")
	}

	if bootstrapCfg.Logging.Level == "" {
		bootstrapCfg.Logging.Level = "info"
	}
	if bootstrapCfg.Server.HTTPPort == 0 {
		bootstrapCfg.Server.HTTPPort = 8080
	}

	return &bootstrapCfg, nil
}
