package services

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// ErrInvalidConfig wraps every parse or validation failure from UpdateConfig.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigPublisher defines the interface for publishing configuration updates.
type ConfigPublisher interface {
	PublishConfigUpdate() error
	PublishConfigUpdatedNotification() error
}

// ConfigApplier pushes a newly accepted configuration into running components.
type ConfigApplier func(cfg *config.Config)

// TeleopConfigService manages the operational keypad configuration.
type TeleopConfigService interface {
	LoadConfig() error
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	SetPublisher(p ConfigPublisher)
	AddApplier(a ConfigApplier)
}

type teleopConfigService struct {
	operationalConfigPath string
	logger                customlog.Logger
	configPublisher       ConfigPublisher
	appliers              []ConfigApplier
	currentConfig         *config.Config
	mu                    sync.RWMutex
	// updateMu orders whole updates: persist, swap and apply.
	updateMu sync.Mutex
}

// NewTeleopConfigService creates a TeleopConfigService. A missing or invalid
// file is logged and the built-in defaults are used until a valid config is
// provided through UpdateConfig.
func NewTeleopConfigService(operationalConfigPath string, logger customlog.Logger) (TeleopConfigService, error) {
	if operationalConfigPath == "" {
		return nil, fmt.Errorf("operational configuration path cannot be empty")
	}

	service := &teleopConfigService{
		operationalConfigPath: operationalConfigPath,
		logger:                logger,
	}

	if err := service.LoadConfig(); err != nil {
		logger.Warnf("Initial load of operational config '%s' failed: %v. Using defaults.", operationalConfigPath, err)
		service.currentConfig = config.Default()
		return service, nil
	}

	logger.Infof("TeleopConfigService initialized for path: %s", operationalConfigPath)
	return service, nil
}

// LoadConfig reads and validates the operational config file. On failure the
// current config is left unchanged.
func (s *teleopConfigService) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading operational configuration from: %s", s.operationalConfigPath)
	cfg, err := config.LoadConfig(s.operationalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading operational config '%s': %w", s.operationalConfigPath, err)
	}

	s.currentConfig = cfg
	s.logger.Infof("Loaded operational configuration ID: %s, Version: %s", cfg.ConfigID, cfg.Version)
	return nil
}

// GetCurrentConfig returns the active configuration. Callers must treat it as
// read-only; changes go through UpdateConfig.
func (s *teleopConfigService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML returns the raw file content.
func (s *teleopConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.logger.Debugf("Reading raw operational configuration YAML from: %s", s.operationalConfigPath)
	data, err := os.ReadFile(s.operationalConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading operational config file '%s': %w", s.operationalConfigPath, err)
	}
	return data, nil
}

// UpdateConfig validates, persists and applies a new configuration, then
// publishes the full config and a short notification. The file is only
// written once the YAML is known to be valid. Concurrent updates are applied
// in the order they are persisted.
func (s *teleopConfigService) UpdateConfig(newConfigYAML []byte) error {
	newCfg, err := config.ParseConfig(newConfigYAML)
	if err != nil {
		s.logger.Warnf("Rejected configuration update: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.Lock()
	if err := s.persistConfigUnlocked(newConfigYAML); err != nil {
		s.mu.Unlock()
		return err
	}

	oldID := "N/A"
	if s.currentConfig != nil {
		oldID = s.currentConfig.ConfigID
	}
	s.currentConfig = newCfg
	appliers := append([]ConfigApplier(nil), s.appliers...)
	publisher := s.configPublisher
	s.mu.Unlock()

	s.logger.Infof("Updated operational configuration. ID %s -> %s, Version: %s", oldID, newCfg.ConfigID, newCfg.Version)

	for _, apply := range appliers {
		apply(newCfg)
	}

	if publisher != nil {
		go func() {
			if err := publisher.PublishConfigUpdate(); err != nil {
				s.logger.Warnf("Failed to publish config update: %v", err)
			}
			if err := publisher.PublishConfigUpdatedNotification(); err != nil {
				s.logger.Warnf("Failed to publish config update notification: %v", err)
			}
		}()
	}
	return nil
}

func (s *teleopConfigService) persistConfigUnlocked(yamlData []byte) error {
	if err := os.WriteFile(s.operationalConfigPath, yamlData, 0644); err != nil {
		s.logger.Errorf("Error writing operational config file '%s': %v", s.operationalConfigPath, err)
		return fmt.Errorf("error writing operational config file '%s': %w", s.operationalConfigPath, err)
	}
	s.logger.Debugf("Persisted configuration to %s", s.operationalConfigPath)
	return nil
}

// SetPublisher allows injecting the ConfigPublisher after initialization.
func (s *teleopConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPublisher = p
}

// AddApplier registers a callback run after every accepted update.
func (s *teleopConfigService) AddApplier(a ConfigApplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appliers = append(s.appliers, a)
}
