package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-teleop/keypad/domain/odometry"
	"github.com/open-teleop/keypad/domain/teleop"
	"github.com/open-teleop/keypad/pkg/api"
	"github.com/open-teleop/keypad/pkg/config"
	customlog "github.com/open-teleop/keypad/pkg/log"
	"github.com/open-teleop/keypad/pkg/metrics"
	"github.com/open-teleop/keypad/pkg/processing"
	"github.com/open-teleop/keypad/pkg/wire"
	"github.com/open-teleop/keypad/pkg/zeromq"
	"github.com/open-teleop/keypad/services"
)

const shutdownTimeout = 5 * time.Second

// loadBootstrap reads the bootstrap file and resolves a relative data
// directory against the config directory.
func loadBootstrap(opts *options) (*config.BootstrapConfig, error) {
	boot, err := config.LoadBootstrapConfig(opts.configDir)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(boot.Data.Directory) {
		boot.Data.Directory = filepath.Join(opts.configDir, boot.Data.Directory)
	}
	if opts.logLevel != "" {
		boot.Logging.Level = opts.logLevel
	}
	return boot, nil
}

func checkConfig(cmd *cobra.Command, opts *options) error {
	boot, err := loadBootstrap(opts)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(boot.Data.TeleopConfigPath())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config %s (version %s) OK: topic=%s interval=%v linear=%.2f angular=%.2f holonomic=%t mappings=%d outbound/%d inbound\n",
		cfg.ConfigID, cfg.Version, cfg.Keypad.Topic, cfg.Keypad.Interval(),
		cfg.Keypad.LinearSpeed, cfg.Keypad.AngularSpeed, cfg.Keypad.Holonomic,
		len(cfg.GetTopicMappingsByDirection(config.DirectionOutbound)),
		len(cfg.GetTopicMappingsByDirection(config.DirectionInbound)))
	return nil
}

func serve(opts *options) error {
	boot, err := loadBootstrap(opts)
	if err != nil {
		return err
	}

	logger, err := customlog.NewLogrusLogger(boot.Logging.Level, boot.Logging.LogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infof("Starting keypad (config dir %s)", opts.configDir)

	configService, err := services.NewTeleopConfigService(boot.Data.TeleopConfigPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize config service: %w", err)
	}
	cfg := configService.GetCurrentConfig()

	registry := processing.NewTopicRegistry(logger)
	registry.LoadFromConfig(cfg)

	zmqService, err := zeromq.NewZeroMQService(boot.ZeroMQ, logger.WithField("component", "zeromq"))
	if err != nil {
		return fmt.Errorf("failed to initialize ZeroMQ: %w", err)
	}

	publisher := teleop.NewRateLimitedCommandPublisher(logger.WithField("component", "publisher"), metrics.PublisherObserver{})
	keypad := teleop.NewKeypad(publisher, teleop.Speeds{
		Linear:  cfg.Keypad.LinearSpeed,
		Angular: cfg.Keypad.AngularSpeed,
	}, cfg.Keypad.Holonomic)
	teleopService := teleop.NewTeleopService(keypad, publisher, logger)

	configPublisher := zeromq.RegisterHandlers(zmqService, configService, teleopService, logger)
	configService.SetPublisher(configPublisher)
	configService.AddApplier(func(next *config.Config) {
		keypad.SetSpeeds(teleop.Speeds{Linear: next.Keypad.LinearSpeed, Angular: next.Keypad.AngularSpeed})
		keypad.SetHolonomic(next.Keypad.Holonomic)
		registry.LoadFromConfig(next)
		if next.Keypad.Topic != cfg.Keypad.Topic || next.Keypad.IntervalMs != cfg.Keypad.IntervalMs {
			logger.Warnf("keypad.topic and keypad.interval_ms changes take effect after restart")
		}
	})

	if err := zmqService.Start(); err != nil {
		return fmt.Errorf("failed to start ZeroMQ: %w", err)
	}

	sink := zeromq.NewCommandSink(zmqService, cfg.Keypad.Topic, registry)
	if err := publisher.Start(cfg.Keypad.Interval(), sink); err != nil {
		zmqService.Stop()
		return fmt.Errorf("failed to start command publisher: %w", err)
	}

	var odometryService *odometry.OdometryService
	var listener *zeromq.OdometryListener
	if cfg.Odometry.Enabled && boot.ZeroMQ.OdometryConnectAddress != "" {
		odometryService = odometry.NewOdometryService()
		listener, err = zeromq.NewOdometryListener(zmqService.Context(), boot.ZeroMQ.OdometryConnectAddress, cfg.Odometry.Topic,
			func(msg wire.OdometryMsg) {
				odometryService.Update(msg)
				metrics.OdometryReceived()
			}, registry, logger.WithField("component", "odometry"))
		if err != nil {
			logger.Warnf("Odometry disabled: %v", err)
			odometryService = nil
		} else {
			listener.Start()
		}
	}

	app := api.NewApp()
	api.RegisterRoutes(app, api.Dependencies{
		Teleop:   teleopService,
		Odometry: odometryService,
		Topics:   registry,
		Config:   configService,
		Logger:   logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", boot.Server.HTTPPort)
		logger.Infof("HTTP server listening on %s", addr)
		serverErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Infof("Received %s, shutting down", sig)
	case err := <-serverErr:
		logger.Errorf("HTTP server failed: %v", err)
	}

	// Close HTTP and websocket input first. The final zero is sent after the
	// timer has exited, so a late ZeroMQ press cannot re-arm the publisher.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warnf("HTTP server forced to shutdown: %v", err)
	}

	if err := publisher.StopWithFinal(teleop.Zero); err != nil {
		logger.Warnf("Final stop command failed: %v", err)
	}
	if listener != nil {
		listener.Stop()
	}

	zmqService.Stop()
	logger.Infof("Keypad exited")
	return nil
}
