package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/dashboard"
	"github.com/agmortgage/agbank/internal/model"
)

func newSummaryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the dashboard for the signed-in identity",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		a.load(ctx)
		if a.sessions.IsAdmin() {
			return a.printAdminSummary()
		}
		return a.printUserSummary()
	})
	return cmd
}

func (a *app) printUserSummary() error {
	u := a.sessions.Current()
	s := dashboard.ForUser(u.ID, a.data.Loans(), a.data.Book())

	fmt.Fprintf(a.out, "%s\n\n", u.FullName())
	t := newTable(a.out, "FIGURE", "VALUE")
	t.row("total savings", naira(s.TotalSavings))
	t.row("savings accounts", strconv.Itoa(s.Accounts))
	t.row("active loans", fmt.Sprintf("%d (%s)", s.ActiveLoans.Count, naira(s.ActiveLoans.Amount)))
	t.row("pending loans", fmt.Sprintf("%d (%s)", s.PendingLoans.Count, naira(s.PendingLoans.Amount)))
	if err := t.flush(); err != nil {
		return err
	}
	if len(s.RecentLoans) == 0 {
		return nil
	}

	fmt.Fprintln(a.out, "\nRecent loans")
	r := newTable(a.out, "ID", "TYPE", "AMOUNT", "STATUS", "APPLIED")
	for _, l := range s.RecentLoans {
		r.row(l.ID.String(), string(l.LoanType), naira(l.Amount), string(l.Status), date(l.AppliedAt))
	}
	return r.flush()
}

func (a *app) printAdminSummary() error {
	s := dashboard.ForAdmin(a.data.Users(), a.data.Loans(), a.data.Book())

	t := newTable(a.out, "FIGURE", "VALUE")
	t.row("customers", strconv.Itoa(s.Customers))
	t.row("savings accounts", strconv.Itoa(s.SavingsAccounts))
	t.row("total savings", naira(s.TotalSavings))
	t.row("average per customer", naira(s.AverageSavings))
	for _, status := range []model.LoanStatus{model.LoanPending, model.LoanApproved, model.LoanRejected, model.LoanDisbursed} {
		lt := s.LoansByStatus[status]
		t.row(string(status)+" loans", fmt.Sprintf("%d (%s)", lt.Count, naira(lt.Amount)))
	}
	if err := t.flush(); err != nil {
		return err
	}
	if len(s.ByCustomer) == 0 {
		return nil
	}

	fmt.Fprintln(a.out, "\nSavings by customer")
	c := newTable(a.out, "CUSTOMER", "EMAIL", "ACCOUNTS", "TOTAL")
	for _, row := range s.ByCustomer {
		c.row(row.User.FullName(), row.User.Email, strconv.Itoa(row.Accounts), naira(row.Total))
	}
	return c.flush()
}

func newRefreshCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch every collection and report what was loaded",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		if err := a.data.Refresh(ctx); err != nil {
			a.warn("some data could not be loaded: %v", err)
		}
		fmt.Fprintf(a.out, "%d loans, %d savings accounts", len(a.data.Loans()), len(a.data.SavingsAccounts()))
		if a.sessions.IsAdmin() {
			fmt.Fprintf(a.out, ", %d users", len(a.data.Users()))
		}
		fmt.Fprintln(a.out)
		return nil
	})
	return cmd
}

func newActivityCommand(opts *options) *cobra.Command {
	var (
		query activity.Query
		since time.Duration
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the local activity log, newest last",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 20, "show at most this many entries, 0 for all")
	cmd.Flags().StringVar(&query.Actor, "actor", "", "only entries by this email")
	cmd.Flags().StringVar(&query.Action, "action", "", "only entries of this action, e.g. deposit")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this, e.g. 24h")
	cmd.RunE = run(opts, func(_ context.Context, a *app, _ []string) error {
		if since > 0 {
			query.Since = time.Now().Add(-since)
		}
		entries, err := activity.Read(a.cfg.Activity.Path, query)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "No activity recorded")
			return nil
		}

		t := newTable(a.out, "TIME", "ACTOR", "ACTION", "ENTITY", "DETAILS")
		for _, e := range entries {
			t.row(e.Timestamp.Local().Format("2006-01-02 15:04"), e.Actor, e.Action, e.EntityID, e.Details)
		}
		return t.flush()
	})
	return cmd
}
