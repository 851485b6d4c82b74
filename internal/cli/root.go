// internal/cli/root.go
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the licensed command. Without a subcommand it
// serves the HTTP API.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "licensed",
		Short:         "AwingConnect license server",
		Long:          "Issues and validates hardware-bound licenses and serves the admin API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewAdminCommand())
	cmd.AddCommand(NewLicenseCommand())
	cmd.AddCommand(NewSessionsCommand())

	return cmd
}
