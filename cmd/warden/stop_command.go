package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/ipc"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the wardend daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp.Stopping {
					fmt.Fprintln(stdout, "Daemon is shutting down")
				} else {
					fmt.Fprintln(stdout, "Stop request sent")
				}
				return nil
			})
		},
	}
}
