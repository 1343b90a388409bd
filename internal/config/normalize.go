package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.DataDir, err = expandPath(c.DataDir); err != nil {
		return err
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return err
	}
	if c.Helper.ReplyDir, err = expandPath(c.Helper.ReplyDir); err != nil {
		return err
	}
	if c.Helper.Socket, err = expandPath(c.Helper.Socket); err != nil {
		return err
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Update.URL = strings.TrimRight(strings.TrimSpace(c.Update.URL), "/")
	c.Update.Channel = strings.TrimSpace(c.Update.Channel)
	c.Update.Package = strings.TrimSpace(c.Update.Package)
	c.APIBind = strings.TrimSpace(c.APIBind)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}
