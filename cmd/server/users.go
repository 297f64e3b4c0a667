package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a dashboard account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in service.NewUser
		in.Email, _ = cmd.Flags().GetString("email")
		in.Password, _ = cmd.Flags().GetString("password")
		in.FullName, _ = cmd.Flags().GetString("name")
		in.Role, _ = cmd.Flags().GetString("role")
		in.States, _ = cmd.Flags().GetStringSlice("states")

		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := service.NewAccessService(repository.NewUserRepository(db)).CreateUser(context.Background(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Username, u.Email)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dashboard accounts as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := service.NewAccessService(repository.NewUserRepository(db)).ListUsers(context.Background())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd, usersListCmd)

	usersAddCmd.Flags().String("email", "", "Login email")
	usersAddCmd.Flags().String("password", "", "Password (at least 6 characters)")
	usersAddCmd.Flags().String("name", "", "Full name")
	usersAddCmd.Flags().String("role", "user", "admin or user")
	usersAddCmd.Flags().StringSlice("states", nil, "Allowed states for a user, comma separated")
	_ = usersAddCmd.MarkFlagRequired("email")
	_ = usersAddCmd.MarkFlagRequired("password")
}
