package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/forms"
)

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password; read from stdin when omitted")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if password == "" {
			line, err := readLine(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = line
		}
		if strings.TrimSpace(email) == "" || password == "" {
			return errors.New("please enter email and password")
		}
		if !a.sessions.Login(ctx, email, password) {
			return errors.New("login failed: check your email and password")
		}
		u := a.sessions.Current()
		a.record(activity.ActionLogin, "", u.ID.String())
		fmt.Fprintf(a.out, "Welcome back, %s\n", u.FullName())
		return nil
	})
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRegisterCommand(opts *options) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account from a YAML profile",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&profile, "profile", "", "registration profile YAML (required)")
	_ = cmd.MarkFlagRequired("profile")

	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		reg, err := forms.LoadRegistration(profile)
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if !a.sessions.Register(ctx, reg) {
			return errors.New("registration failed: the bank did not accept the application")
		}
		u := a.sessions.Current()
		a.record(activity.ActionRegister, "", u.ID.String())
		fmt.Fprintf(a.out, "Welcome to AG Mortgage Bank, %s\n", u.FullName())
		return nil
	})
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(_ context.Context, a *app, _ []string) error {
		if u := a.sessions.Current(); u != nil {
			a.record(activity.ActionLogout, "", u.ID.String())
		}
		a.sessions.Logout()
		fmt.Fprintln(a.out, "Logged out")
		return nil
	})
	return cmd
}

func newWhoamiCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(_ context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		u := a.sessions.Current()
		t := newTable(a.out, "FIELD", "VALUE")
		t.row("id", u.ID.String())
		t.row("name", u.FullName())
		t.row("email", u.Email)
		t.row("role", string(u.Role))
		t.row("active", fmt.Sprint(u.IsActive))
		t.row("member since", date(u.CreatedAt))
		return t.flush()
	})
	return cmd
}

func newPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "password <password>",
		Short: "Rate a password against the registration rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw := args[0]
			score := calc.PasswordScore(pw)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Strength: %s (%d/5)\n", calc.PasswordLabel(score), score)
			if err := calc.ValidatePassword(pw); err != nil {
				fmt.Fprintln(out, err)
				return nil
			}
			fmt.Fprintln(out, "Password meets all requirements")
			return nil
		},
	}
}
