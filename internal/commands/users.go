package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/id"
)

func newUsersCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer customer identities",
	}
	cmd.AddCommand(
		newUsersListCommand(opts),
		newUsersDeleteCommand(opts),
		newUserStatusCommand(opts, "activate", true),
		newUserStatusCommand(opts, "deactivate", false),
	)
	return cmd
}

func newUsersListCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every identity with its savings",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}
		a.load(ctx)

		book := a.data.Book()
		t := newTable(a.out, "ID", "NAME", "EMAIL", "ROLE", "ACTIVE", "ACCOUNTS", "SAVINGS")
		for _, u := range a.data.Users() {
			t.row(u.ID.String(), u.FullName(), u.Email, string(u.Role), strconv.FormatBool(u.IsActive),
				strconv.Itoa(book.CountFor(u.ID)), naira(book.TotalFor(u.ID)))
		}
		return t.flush()
	})
	return cmd
}

func newUsersDeleteCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete an identity with its loans and accounts",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}
		userID := id.ID(args[0])
		if userID == a.sessions.Current().ID {
			return fmt.Errorf("cannot delete the signed-in administrator")
		}
		a.load(ctx)
		if err := a.settle(a.data.DeleteUser(ctx, userID)); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		a.record(activity.ActionDeleteUser, "", userID.String())
		fmt.Fprintf(a.out, "User %s deleted\n", userID)
		return nil
	})
	return cmd
}

func newUserStatusCommand(opts *options, verb string, active bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " <user-id>",
		Short: fmt.Sprintf("Set an identity's active flag to %t", active),
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}
		userID := id.ID(args[0])
		a.load(ctx)
		if err := a.settle(a.data.UpdateUserStatus(ctx, userID, active)); err != nil {
			return fmt.Errorf("updating user: %w", err)
		}
		a.record(activity.ActionUpdateUserState, verb, userID.String())
		fmt.Fprintf(a.out, "User %s %sd\n", userID, verb)
		return nil
	})
	return cmd
}
