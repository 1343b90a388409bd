package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated via -ldflags at release build time.
var (
	version = "0.1.0"
	release = "20260101000000"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show warden version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "warden %s/%s (%s %s/%s)\n", version, release, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
