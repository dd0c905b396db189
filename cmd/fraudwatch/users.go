package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/cli"
	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
		Long:  `Register users and reset their passwords from the command line.`,
	}

	cmd.AddCommand(registerUserCmd())
	cmd.AddCommand(resetPasswordCmd())

	return cmd
}

func registerUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			store, accounts, err := initAccounts(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return registerUser(cmd, accounts, args[0])
		},
	}
}

func registerUser(cmd *cobra.Command, accounts *account.Service, username string) error {
	c := newConsole(cmd)
	password, err := c.Password("Password:")
	if err != nil {
		return err
	}
	confirmation, err := c.Password("Confirm password:")
	if err != nil {
		return err
	}
	if password != confirmation {
		return errors.New(account.MsgPasswordMismatch)
	}

	out := accounts.Register(cmd.Context(), username, password)
	return report(cmd, out)
}

func resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a new password for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			store, accounts, err := initAccounts(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return resetPassword(cmd, accounts, args[0])
		},
	}
}

func resetPassword(cmd *cobra.Command, accounts *account.Service, username string) error {
	c := newConsole(cmd)
	password, err := c.Password("New password:")
	if err != nil {
		return err
	}
	confirmation, err := c.Password("Confirm new password:")
	if err != nil {
		return err
	}

	out := accounts.ResetPassword(cmd.Context(), username, password, confirmation)
	return report(cmd, out)
}

// report prints a successful outcome or turns a failed one into an error.
func report(cmd *cobra.Command, out account.Outcome) error {
	if !out.OK {
		return errors.New(out.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(out.Message))
	return nil
}
