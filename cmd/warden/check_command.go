package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/ipc"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Force an immediate update check",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Check()
				if err != nil {
					return fmt.Errorf("check: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp.Status.Staged == "" {
					fmt.Fprintf(stdout, "No newer build than %s\n", resp.Status.Current)
					return nil
				}
				fmt.Fprintf(stdout, "Staged build: %s\n", resp.Status.Staged)
				return nil
			})
		},
	}
}
