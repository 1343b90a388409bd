package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"warden/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			rows := [][]string{
				{"data_dir", cfg.DataDir},
				{"log_dir", cfg.LogDir},
				{"log_level", cfg.LogLevel},
				{"log_format", cfg.LogFormat},
				{"update.url", cfg.Update.URL},
				{"update.channel", cfg.Update.Channel},
				{"update.package", cfg.Update.Package},
				{"update.period_seconds", fmt.Sprintf("%d", cfg.Update.PeriodSeconds)},
				{"update.auto_restart", yesNo(cfg.Update.AutoRestart)},
				{"helper.socket", cfg.Helper.Socket},
				{"helper.reply_dir", cfg.Helper.ReplyDir},
				{"helper.command_timeout_seconds", fmt.Sprintf("%d", cfg.Helper.CommandTimeoutSeconds)},
				{"api_bind", cfg.APIBind},
			}
			fmt.Fprint(stdout, renderTable(stdout, []string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
