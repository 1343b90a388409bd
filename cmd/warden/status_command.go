package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warden/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and update status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	staged := status.Staged
	if staged == "" {
		staged = "none"
	}
	rows := [][]string{
		{"Running", yesNo(status.Running)},
		{"PID", fmt.Sprintf("%d", status.PID)},
		{"Current build", status.Current},
		{"Staged build", staged},
		{"Helper connected", yesNo(status.HelperConnected)},
		{"Lock file", status.LockPath},
		{"History database", status.HistoryPath},
	}
	if status.APIBind != "" {
		rows = append(rows, []string{"API address", status.APIBind})
	}
	fmt.Fprint(stdout, renderTable(stdout, []string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}
