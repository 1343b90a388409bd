package config

import (
	"errors"
	"fmt"

	"warden/internal/ident"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUpdate(); err != nil {
		return err
	}
	if err := c.validateHelper(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.LogDir == "" {
		return errors.New("log_dir is required")
	}
	return nil
}

func (c *Config) validateUpdate() error {
	if c.Update.URL == "" {
		return errors.New("update.url is required")
	}
	if c.Update.Channel == "" {
		return errors.New("update.channel is required")
	}
	if c.Update.PeriodSeconds <= 0 {
		return fmt.Errorf("update.period_seconds must be positive, got %d", c.Update.PeriodSeconds)
	}
	if _, err := ident.Parse(c.Update.Package); err != nil {
		return fmt.Errorf("update.package: %w", err)
	}
	return nil
}

func (c *Config) validateHelper() error {
	if c.Helper.Socket == "" {
		// Helper integration is optional; the daemon falls back to
		// self-exec or stage-only behavior.
		return nil
	}
	if c.Helper.ReplyDir == "" {
		return errors.New("helper.reply_dir is required when helper.socket is set")
	}
	if c.Helper.CommandTimeoutSeconds <= 0 {
		return fmt.Errorf("helper.command_timeout_seconds must be positive, got %d", c.Helper.CommandTimeoutSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.LogFormat)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return fmt.Errorf("notifications.request_timeout must be positive, got %d", c.Notifications.RequestTimeout)
	}
	return nil
}
