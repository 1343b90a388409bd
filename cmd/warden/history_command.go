package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"warden/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded update events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return fmt.Errorf("history: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(stdout, "No update events recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Events))
				for _, ev := range resp.Events {
					rows = append(rows, []string{
						ev.RecordedAt.Local().Format(time.DateTime),
						ev.Candidate,
						ev.Action,
						ev.Detail,
					})
				}
				fmt.Fprint(stdout, renderTable(stdout,
					[]string{"Recorded", "Candidate", "Action", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	return cmd
}
