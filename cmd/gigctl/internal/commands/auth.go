package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gigmarket/internal/domain"
	"gigmarket/internal/service"
	"gigmarket/internal/session"
)

func newSignUpCommand() *cobra.Command {
	var in service.SignUpInput
	var role string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			in.Role = domain.Role(role)
			user, err := e.store.SignUp(cmd.Context(), in)
			if errors.Is(err, session.ErrConfirmationPending) {
				fmt.Fprintln(e.out, "check your inbox to confirm the email address, then run gigctl login")
				return nil
			}
			if user != nil {
				if perr := e.print(user); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleFreelancer), "client or freelancer")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLoginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, err := e.store.SignIn(cmd.Context(), email, password)
			if user != nil {
				if perr := e.print(user); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return envFrom(cmd).store.SignOut(cmd.Context())
		},
	}
}

func newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, _, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			return e.print(user)
		},
	}
}

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var name, bio, location string
	var rate float64
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile attributes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			if _, _, err := e.signedIn(cmd.Context()); err != nil {
				return err
			}
			var patch domain.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.FullName = &name
			}
			if cmd.Flags().Changed("bio") {
				patch.Bio = &bio
			}
			if cmd.Flags().Changed("location") {
				patch.Location = &location
			}
			if cmd.Flags().Changed("rate") {
				patch.HourlyRate = &rate
			}
			user, err := e.store.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return e.print(user)
		},
	}
	update.Flags().StringVar(&name, "name", "", "full name")
	update.Flags().StringVar(&bio, "bio", "", "short biography")
	update.Flags().StringVar(&location, "location", "", "location")
	update.Flags().Float64Var(&rate, "rate", 0, "hourly rate")

	cmd.AddCommand(update)
	return cmd
}
