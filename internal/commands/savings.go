package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
	"github.com/agmortgage/agbank/internal/statement"
)

func newSavingsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "savings",
		Short: "Open savings accounts and move money",
	}
	cmd.AddCommand(
		newSavingsListCommand(opts),
		newSavingsOpenCommand(opts),
		newTransactionCommand(opts, "deposit", model.TxnDeposit),
		newTransactionCommand(opts, "withdraw", model.TxnWithdrawal),
		newStatementCommand(opts),
		newVerifyCommand(opts),
	)
	return cmd
}

func newSavingsListCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List savings accounts and balances",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		a.load(ctx)

		t := newTable(a.out, "ID", "NUMBER", "TYPE", "BALANCE", "RATE", "OPENED")
		for _, acct := range a.data.SavingsAccounts() {
			t.row(acct.ID.String(), acct.AccountNumber, string(acct.AccountType),
				naira(acct.Balance), calc.FormatRate(acct.InterestRate), date(acct.CreatedAt))
		}
		if err := t.flush(); err != nil {
			return err
		}

		total := a.data.UserTotalSavings(a.sessions.Current().ID)
		if a.sessions.IsAdmin() {
			total = a.data.TotalSystemSavings()
		}
		fmt.Fprintf(a.out, "\nTotal savings: %s\n", naira(total))
		return nil
	})
	return cmd
}

func newSavingsOpenCommand(opts *options) *cobra.Command {
	var accountType, deposit string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a savings account",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&accountType, "type", string(model.AccountSavings), "savings or fixed")
	cmd.Flags().StringVar(&deposit, "deposit", "", "initial deposit in naira (required)")
	_ = cmd.MarkFlagRequired("deposit")

	cmd.RunE = run(opts, func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		amount, err := parseAmount("deposit", deposit)
		if err != nil {
			return err
		}
		form := forms.SavingsAccount{AccountType: model.AccountType(accountType), InitialDeposit: amount}
		if err := form.Validate(); err != nil {
			return err
		}

		a.load(ctx)
		before := a.data.SavingsAccounts()
		acct, err := a.data.AddSavingsAccount(ctx, form.Request())
		if err = a.settle(err); err != nil {
			return fmt.Errorf("opening account: %w", err)
		}
		if acct == nil {
			if found, ok := added(before, a.data.SavingsAccounts(), func(s model.SavingsAccount) id.ID { return s.ID }); ok {
				acct = &found
			}
		}
		details := fmt.Sprintf("%s %s", form.AccountType, amount.StringFixed(2))
		if acct == nil {
			a.record(activity.ActionOpenAccount, details, "")
			fmt.Fprintf(a.out, "Opened %s account with %s\n", form.AccountType, naira(amount))
			return nil
		}
		a.record(activity.ActionOpenAccount, details, acct.ID.String())
		fmt.Fprintf(a.out, "Opened %s account %s at %s with %s\n",
			acct.AccountType, acct.AccountNumber, calc.FormatRate(acct.InterestRate), naira(acct.Balance))
		return nil
	})
	return cmd
}

func newTransactionCommand(opts *options, verb string, txnType model.TransactionType) *cobra.Command {
	var amountFlag, description string
	cmd := &cobra.Command{
		Use:   verb + " <account>",
		Short: fmt.Sprintf("Post a %s to an account, by ID or account number", txnType),
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&amountFlag, "amount", "", "amount in naira (required)")
	cmd.Flags().StringVar(&description, "description", "", "narration")
	_ = cmd.MarkFlagRequired("amount")

	action := activity.ActionDeposit
	if txnType == model.TxnWithdrawal {
		action = activity.ActionWithdraw
	}

	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		amount, err := parseAmount("amount", amountFlag)
		if err != nil {
			return err
		}

		a.load(ctx)
		accountID, ok := lookupAccount(a.data.Book(), args[0])
		if !ok {
			return fmt.Errorf("account %s not found", args[0])
		}
		form := forms.Transaction{Type: txnType, Amount: amount, Description: description}
		req := form.Request()
		txn, err := a.data.AddTransaction(ctx, accountID, req)
		if err = a.settle(err); err != nil {
			return fmt.Errorf("posting %s: %w", txnType, err)
		}
		a.record(action, amount.StringFixed(2), accountID.String())

		if txn != nil {
			req.Description = txn.Description
		}
		if acct, ok := a.data.Book().Get(accountID); ok {
			fmt.Fprintf(a.out, "%s of %s posted. New balance: %s\n", req.Description, naira(amount), naira(acct.Balance))
			return nil
		}
		fmt.Fprintf(a.out, "%s of %s posted\n", req.Description, naira(amount))
		return nil
	})
	return cmd
}

func newStatementCommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "statement <account>",
		Short: "Export an account's transactions as CSV",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		a.load(ctx)
		book := a.data.Book()
		accountID, ok := lookupAccount(book, args[0])
		if !ok {
			return fmt.Errorf("account %s not found", args[0])
		}
		acct, _ := book.Get(accountID)

		var w io.Writer = a.out
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating statement: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := statement.Write(w, acct); err != nil {
			return fmt.Errorf("writing statement: %w", err)
		}
		return nil
	})
	return cmd
}

func newVerifyCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <account> <statement.csv>",
		Short: "Check an exported statement against the account's current ledger",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = run(opts, func(ctx context.Context, a *app, args []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening statement: %w", err)
		}
		defer f.Close()
		exported, err := statement.Read(f)
		if err != nil {
			return err
		}

		a.load(ctx)
		book := a.data.Book()
		accountID, ok := lookupAccount(book, args[0])
		if !ok {
			return fmt.Errorf("account %s not found", args[0])
		}
		acct, _ := book.Get(accountID)

		d := statement.Compare(exported, acct)
		fmt.Fprintf(a.out, "%d of %d transactions match\n", d.Matched, len(acct.Transactions))
		for _, txnID := range d.Missing {
			fmt.Fprintf(a.out, "missing from statement: %s\n", txnID)
		}
		for _, txnID := range d.Unknown {
			fmt.Fprintf(a.out, "not on account: %s\n", txnID)
		}
		for _, txnID := range d.Changed {
			fmt.Fprintf(a.out, "differs: %s\n", txnID)
		}
		if !d.Clean() {
			return fmt.Errorf("statement does not match account %s", acct.AccountNumber)
		}
		return nil
	})
	return cmd
}
