package zeromq

import (
	customlog "github.com/open-teleop/keypad/pkg/log"
)

// Notification topics on the PUB socket
const (
	TopicConfigUpdate       = "configuration.update"
	TopicConfigNotification = "configuration.notification"
)

// JSONPublisher is the part of ZeroMQService used for JSON notifications.
type JSONPublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// ConfigPublisher publishes configuration updates to subscribed bridges
type ConfigPublisher struct {
	publisher JSONPublisher
	provider  ConfigProvider
	logger    customlog.Logger
}

// NewConfigPublisher creates a new publisher for configuration updates
func NewConfigPublisher(publisher JSONPublisher, provider ConfigProvider, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		publisher: publisher,
		provider:  provider,
		logger:    logger,
	}
}

// PublishConfigUpdate publishes the full current configuration
func (p *ConfigPublisher) PublishConfigUpdate() error {
	cfg := p.provider.GetCurrentConfig()
	if cfg == nil {
		return nil
	}
	p.logger.Infof("Publishing configuration update (ID: %s)", cfg.ConfigID)
	return p.publisher.PublishJSON(TopicConfigUpdate, MsgTypeConfigResponse, cfg)
}

// PublishConfigUpdatedNotification publishes a short notice that the
// configuration changed.
func (p *ConfigPublisher) PublishConfigUpdatedNotification() error {
	cfg := p.provider.GetCurrentConfig()
	if cfg == nil {
		return nil
	}

	notification := map[string]interface{}{
		"config_id":    cfg.ConfigID,
		"version":      cfg.Version,
		"last_updated": cfg.LastUpdated,
	}

	p.logger.Infof("Publishing configuration update notification (ID: %s)", cfg.ConfigID)
	return p.publisher.PublishJSON(TopicConfigNotification, MsgTypeConfigUpdated, notification)
}

// RegisterHandlers wires the request handlers into the service and returns
// the config publisher.
func RegisterHandlers(service *ZeroMQService, provider ConfigProvider, events KeypadEventSink, logger customlog.Logger) *ConfigPublisher {
	service.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(provider, logger))
	service.RegisterHandler(MsgTypeKeypadEvent, NewKeypadEventHandler(events, logger))

	logger.Infof("Registered ZeroMQ request handlers")
	return NewConfigPublisher(service, provider, logger)
}
