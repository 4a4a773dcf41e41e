package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "askbing %s\n", strings.TrimSpace(version))
			if c := strings.TrimSpace(commit); c != "" && c != "none" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", c)
			}
			return nil
		},
	}
}
