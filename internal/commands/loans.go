package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

func newLoansCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Quote, apply for and review loans",
	}
	cmd.AddCommand(
		newLoansListCommand(opts),
		newLoansQuoteCommand(),
		newLoansApplyCommand(opts),
		newLoanReviewCommand(opts, "approve", model.LoanApproved),
		newLoanReviewCommand(opts, "reject", model.LoanRejected),
		newLoanReviewCommand(opts, "disburse", model.LoanDisbursed),
	)
	return cmd
}

func newLoansListCommand(opts *options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loan applications",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&status, "status", "", "only show loans with this status")
	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		a.load(ctx)

		admin := a.sessions.IsAdmin()
		headers := []string{"ID", "TYPE", "AMOUNT", "MONTHS", "RATE", "MONTHLY", "STATUS", "APPLIED"}
		if admin {
			headers = append(headers, "CUSTOMER")
		}
		names := make(map[id.ID]string)
		for _, u := range a.data.Users() {
			names[u.ID] = u.FullName()
		}

		t := newTable(a.out, headers...)
		for _, l := range a.data.Loans() {
			if status != "" && string(l.Status) != status {
				continue
			}
			cells := []string{
				l.ID.String(),
				string(l.LoanType),
				naira(l.Amount),
				strconv.Itoa(l.Duration),
				calc.FormatRate(calc.EffectiveLoanRate(l)),
				naira(calc.EffectiveMonthlyPayment(l)),
				string(l.Status),
				date(l.AppliedAt),
			}
			if admin {
				name, ok := names[l.UserID]
				if !ok {
					name = l.UserID.String()
				}
				cells = append(cells, name)
			}
			t.row(cells...)
		}
		return t.flush()
	})
	return cmd
}

// loanFlags are shared by quote and apply.
type loanFlags struct {
	amount   string
	loanType string
	duration int
}

func (f *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "principal in naira (required)")
	cmd.Flags().StringVar(&f.loanType, "type", string(model.LoanPersonal), "personal, mortgage, business or auto")
	cmd.Flags().IntVar(&f.duration, "duration", 12, "repayment term in months")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *loanFlags) form() (*forms.Loan, error) {
	amount, err := parseAmount("amount", f.amount)
	if err != nil {
		return nil, err
	}
	return &forms.Loan{Amount: amount, LoanType: model.LoanType(f.loanType), Duration: f.duration}, nil
}

func newLoansQuoteCommand() *cobra.Command {
	var (
		flags    loanFlags
		schedule bool
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate repayments without applying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, err := flags.form()
			if err != nil {
				return err
			}
			if !form.LoanType.Valid() {
				return fmt.Errorf("unknown loan type %q", form.LoanType)
			}
			rate := calc.LoanRate(form.LoanType)
			q := form.Quote()

			out := cmd.OutOrStdout()
			t := newTable(out, "FIELD", "VALUE")
			t.row("interest rate", calc.FormatRate(rate))
			t.row("monthly payment", naira(q.MonthlyPayment))
			t.row("total payment", naira(q.TotalPayment))
			t.row("total interest", naira(q.TotalInterest))
			if err := t.flush(); err != nil {
				return err
			}
			if !schedule {
				return nil
			}

			fmt.Fprintln(out)
			s := newTable(out, "MONTH", "PAYMENT", "INTEREST", "PRINCIPAL", "REMAINING")
			for _, row := range calc.Schedule(form.Amount, form.Duration, rate) {
				s.row(strconv.Itoa(row.Month), naira(row.Payment), naira(row.Interest), naira(row.Principal), naira(row.Remaining))
			}
			return s.flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&schedule, "schedule", false, "print the month by month schedule")
	return cmd
}

func newLoansApplyCommand(opts *options) *cobra.Command {
	var (
		flags      loanFlags
		purpose    string
		collateral string
		guarantor  model.Guarantor
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a loan application",
		Args:  cobra.NoArgs,
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&purpose, "purpose", "", "what the loan is for (required)")
	cmd.Flags().StringVar(&collateral, "collateral", "", "collateral offered")
	cmd.Flags().StringVar(&guarantor.Name, "guarantor-name", "", "guarantor full name")
	cmd.Flags().StringVar(&guarantor.PhoneNumber, "guarantor-phone", "", "guarantor phone number")
	cmd.Flags().StringVar(&guarantor.Relationship, "guarantor-relationship", "", "guarantor relationship to you")
	cmd.Flags().StringVar(&guarantor.Address, "guarantor-address", "", "guarantor address")

	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		form, err := flags.form()
		if err != nil {
			return err
		}
		form.Purpose = purpose
		form.Collateral = collateral
		form.Guarantor = guarantor

		req, err := form.Request(a.sessions.Current().MonthlyIncome)
		if err != nil {
			return err
		}
		a.load(ctx)
		before := a.data.Loans()
		loan, err := a.data.AddLoanApplication(ctx, req)
		if err = a.settle(err); err != nil {
			return fmt.Errorf("applying for loan: %w", err)
		}
		if loan == nil {
			if found, ok := added(before, a.data.Loans(), func(l model.LoanApplication) id.ID { return l.ID }); ok {
				loan = &found
			}
		}
		details := fmt.Sprintf("%s %s over %d months", req.LoanType, req.Amount.StringFixed(2), req.Duration)
		if loan == nil {
			a.record(activity.ActionApplyLoan, details, "")
			fmt.Fprintf(a.out, "Loan application submitted: %s, estimated %s per month\n",
				naira(req.Amount), naira(req.MonthlyPayment))
			return nil
		}
		a.record(activity.ActionApplyLoan, details, loan.ID.String())
		fmt.Fprintf(a.out, "Loan application %s submitted: %s, estimated %s per month\n",
			loan.ID, naira(loan.Amount), naira(calc.EffectiveMonthlyPayment(*loan)))
		return nil
	})
	return cmd
}

func newLoanReviewCommand(opts *options, verb string, decision model.LoanStatus) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   verb + " <loan-id>",
		Short: fmt.Sprintf("Mark a loan application %s", decision),
		Args:  cobra.ExactArgs(1),
	}
	if decision == model.LoanRejected {
		cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the customer (required)")
	}

	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}
		review := forms.Review{Decision: decision, Reason: reason}
		if err := review.Validate(); err != nil {
			return err
		}

		a.load(ctx)
		loanID := id.ID(args[0])
		loan, ok := a.data.Loan(loanID)
		if !ok {
			return fmt.Errorf("loan %s not found", loanID)
		}
		if !loan.Status.CanTransition(decision) {
			return fmt.Errorf("loan %s is %s and cannot be marked %s", loanID, loan.Status, decision)
		}

		err := a.data.UpdateLoanApplication(ctx, loanID, model.LoanReview{
			Status:          decision,
			ReviewedAt:      time.Now().UTC(),
			ReviewedBy:      a.sessions.Current().ID,
			RejectionReason: reason,
		})
		if err = a.settle(err); err != nil {
			return fmt.Errorf("updating loan: %w", err)
		}
		a.record(activity.ActionReviewLoan, string(decision), loanID.String())
		fmt.Fprintf(a.out, "Loan %s %s\n", loanID, decision)
		return nil
	})
	return cmd
}
