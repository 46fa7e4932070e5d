package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignUpCmd(a *app) *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, err := a.gate("/signup"); !ok {
				return err
			}
			if err := a.manager.SignUp(cmd.Context(), email, password, firstName, lastName); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Signed up as %s.\n", a.manager.State().Identity.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 6 characters")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, err := a.gate("/login"); !ok {
				return err
			}
			if err := a.manager.SignIn(cmd.Context(), email, password); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", a.manager.State().Identity.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func newLoginGoogleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login-google",
		Short: "Sign in with a Google account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, err := a.gate("/login"); !ok {
				return err
			}
			if err := a.manager.FederatedSignIn(cmd.Context()); err != nil {
				return a.report(err)
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", a.manager.State().Identity.DisplayName)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.manager.State().IsSignedIn() {
				fmt.Fprintln(a.out, "You are not signed in.")
				return nil
			}
			if err := a.manager.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ok, err := a.gate("/userinfo"); !ok {
				return err
			}
			p := a.manager.State().Identity
			fmt.Fprintf(a.out, "[%s] %s\n", p.AvatarInitial(), p.DisplayName)
			fmt.Fprintf(a.out, "Email: %s\n", p.Email)
			return nil
		},
	}
}
