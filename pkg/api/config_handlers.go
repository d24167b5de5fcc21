package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/keypad/pkg/log"
	"github.com/open-teleop/keypad/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.TeleopConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.TeleopConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("ConfigService cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, configService services.TeleopConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/teleop", h.handleGetTeleopConfig)
	apiGroup.Put("/teleop", h.handleUpdateTeleopConfig)

	logger.Infof("Registered teleop configuration API endpoints under /api/v1/config")
}

// handleGetTeleopConfig returns the operational config file as YAML. When no
// file exists yet the active defaults are returned as JSON.
func (h *ConfigHandler) handleGetTeleopConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		cfg := h.configService.GetCurrentConfig()
		if cfg == nil {
			h.logger.Errorf("Failed to get current teleop config: %v", err)
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": "Teleop configuration not found or not yet set.",
			})
		}
		h.logger.Debugf("No config file on disk, returning active config: %v", err)
		return c.JSON(cfg)
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateTeleopConfig replaces the operational config with the YAML body.
func (h *ConfigHandler) handleUpdateTeleopConfig(c *fiber.Ctx) error {
	switch c.Get(fiber.HeaderContentType) {
	case "application/x-yaml", "application/yaml", "text/yaml":
	default:
		h.logger.Warnf("Config update with unexpected Content-Type %q, parsing as YAML", c.Get(fiber.HeaderContentType))
	}

	newConfigYAML := c.Body()
	if len(newConfigYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.configService.UpdateConfig(newConfigYAML); err != nil {
		h.logger.Errorf("Failed to update teleop configuration: %v", err)
		if errors.Is(err, services.ErrInvalidConfig) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Configuration update failed: %v", err),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during configuration update: %v", err),
		})
	}

	cfg := h.configService.GetCurrentConfig()
	return c.JSON(fiber.Map{
		"message":   "Teleop configuration updated successfully.",
		"config_id": cfg.ConfigID,
		"version":   cfg.Version,
	})
}
