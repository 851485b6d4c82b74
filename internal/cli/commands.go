// internal/cli/commands.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

const generatedPasswordLength = 20

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

// NewAdminCommand groups admin account maintenance.
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account. When --password is omitted a random
password is generated and printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			generated := false
			if password == "" {
				if password, err = utils.GenerateRandomString(generatedPasswordLength); err != nil {
					return err
				}
				generated = true
			}

			hasher := utils.NewPasswordHasher(rt.cfg.Password.Memory, rt.cfg.Password.Iterations, rt.cfg.Password.Parallelism)
			admins := services.NewAdminService(rt.db, hasher, rt.log)
			admin, err := admins.CreateAdmin(cmd.Context(), &services.CreateAdminRequest{
				Username: username,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("create admin %q: %w", username, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admin user '%s' created\n", admin.Username)
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "Password: %s\n", password)
			}
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "account username")
	create.Flags().StringVar(&password, "password", "", "account password (generated when empty)")
	create.MarkFlagRequired("username")

	cmd.AddCommand(create)
	return cmd
}

// NewLicenseCommand groups operator-only license actions.
func NewLicenseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Operator license actions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-hwid <key>",
		Short: "Clear the hardware binding of a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			licenses := services.NewLicenseService(rt.db, rt.log)
			license, err := licenses.GetLicense(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reset %s: %w", args[0], err)
			}
			if err := licenses.ResetBinding(cmd.Context(), license.Key); err != nil {
				return fmt.Errorf("reset %s: %w", license.Key, err)
			}

			previous := license.HWID
			if previous == "" {
				previous = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hardware binding of %s cleared (was %s)\n", license.Key, previous)
			return nil
		},
	})

	return cmd
}

func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage admin sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired admin sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			tokens := services.NewTokenService(rt.db, rt.cfg.Session, rt.log)
			purged, err := tokens.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired session(s)\n", purged)
			return nil
		},
	})

	return cmd
}
