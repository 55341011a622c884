package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var createAdminCmdFlags struct {
	Email    string
	Username string
	Password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an approved admin account",
	Long:  `Create an approved admin account. Works even when registration is closed.`,
	Example: `hexblog create-admin --email admin@example.com --username admin --password 'correct horse'
HEXBLOG_ADMIN_PASSWORD=secret hexblog create-admin --email admin@example.com --username admin`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := createAdminCmdFlags.Password
		if password == "" {
			password = os.Getenv("HEXBLOG_ADMIN_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required, use --password or HEXBLOG_ADMIN_PASSWORD")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.CreateAdmin(cmd.Context(), createAdminCmdFlags.Email, createAdminCmdFlags.Username, password)
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		log.Info("admin account created", "id", user.ID, "email", user.Email, "username", user.Username)
		return nil
	},
}

var approveUserCmd = &cobra.Command{
	Use:     "approve-user <email>",
	Short:   "Approve a pending account",
	Args:    cobra.ExactArgs(1),
	Example: `hexblog approve-user reader@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.ApproveUser(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return fmt.Errorf("no account with email %s", args[0])
			}
			return fmt.Errorf("failed to approve user: %w", err)
		}
		log.Info("account approved", "id", user.ID, "username", user.Username)
		return nil
	},
}

var reset2FACmd = &cobra.Command{
	Use:   "reset-2fa <email>",
	Short: "Disable two-factor authentication for an account",
	Long: `Disable two-factor authentication for an account and delete its backup codes.
Use this when a user lost both their authenticator app and their backup codes.`,
	Args:    cobra.ExactArgs(1),
	Example: `hexblog reset-2fa reader@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.ResetTwoFactor(cmd.Context(), args[0])
		switch {
		case errors.Is(err, auth.ErrNotFound):
			return fmt.Errorf("no account with email %s", args[0])
		case errors.Is(err, auth.ErrTwoFactorNotEnabled):
			log.Warn("two-factor authentication is not enabled", "email", args[0])
			return nil
		case err != nil:
			return fmt.Errorf("failed to reset two-factor authentication: %w", err)
		}
		log.Info("two-factor authentication reset", "id", user.ID, "username", user.Username)
		return nil
	},
}

var listUsersCmdFlags struct {
	Page int
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, total, err := a.auth.ListUsers(cmd.Context(), listUsersCmdFlags.Page)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tAPPROVED\t2FA\tROLES")
		for i := range users {
			u := &users[i]
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.Email,
				lo.Ternary(u.Approved, "yes", "no"),
				lo.Ternary(u.TOTPEnabled, "on", "off"),
				strings.Join(auth.RoleNames(u), ","),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d of %d accounts (page %d)\n", len(users), total, max(listUsersCmdFlags.Page, 1))
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Email, "email", "", "Email address of the admin")
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Username, "username", "", "Username of the admin")
	createAdminCmd.Flags().StringVar(&createAdminCmdFlags.Password, "password", "", "Password of the admin")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("username")

	listUsersCmd.Flags().IntVar(&listUsersCmdFlags.Page, "page", 1, "Page to show")

	rootCmd.AddCommand(createAdminCmd, approveUserCmd, reset2FACmd, listUsersCmd)
}
