// Package statement exports a savings account's ledger as CSV.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

// Header is the CSV header of a statement.
const Header = "transaction_id,date,type,description,debit,credit,balance"

const (
	numFields = 7
	colID     = 0
	colDate   = 1
	colType   = 2
	colDesc   = 3
	colDebit  = 4
	colCredit = 5
	colBal    = 6
)

// MarshalTransaction converts a ledger entry to a CSV row. Deposits fill the
// credit column and withdrawals the debit column.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID.String()
	row[colDate] = t.Date.UTC().Format(time.RFC3339)
	row[colType] = string(t.Type)
	row[colDesc] = t.Description
	if t.Type.IsCredit() {
		row[colCredit] = t.Amount.StringFixed(2)
	} else {
		row[colDebit] = t.Amount.StringFixed(2)
	}
	row[colBal] = t.Balance.StringFixed(2)
	return row
}

// UnmarshalTransaction converts a CSV row back to a ledger entry.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	date, err := time.Parse(time.RFC3339, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	txType := model.TransactionType(record[colType])
	if !txType.Valid() {
		return model.Transaction{}, fmt.Errorf("unknown transaction type %q", record[colType])
	}
	amountCol := colDebit
	if txType.IsCredit() {
		amountCol = colCredit
	}
	amount, err := decimal.NewFromString(record[amountCol])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[amountCol], err)
	}
	balance, err := decimal.NewFromString(record[colBal])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", record[colBal], err)
	}

	return model.Transaction{
		ID:          id.ID(record[colID]),
		Type:        txType,
		Amount:      amount,
		Description: record[colDesc],
		Date:        date,
		Balance:     balance,
	}, nil
}

// Write writes the account's transactions oldest first.
func Write(w io.Writer, account model.SavingsAccount) error {
	txns := make([]model.Transaction, len(account.Transactions))
	copy(txns, account.Transactions)
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"transaction_id", "date", "type", "description", "debit", "credit", "balance"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a statement written by Write.
func Read(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// Diff is the result of checking an exported statement against the live
// ledger of the same account.
type Diff struct {
	Matched int
	Missing []id.ID // on the account, absent from the statement
	Unknown []id.ID // in the statement, absent from the account
	Changed []id.ID // present in both with a different type, amount or balance
}

// Clean reports whether the statement agrees with the ledger.
func (d Diff) Clean() bool {
	return len(d.Missing) == 0 && len(d.Unknown) == 0 && len(d.Changed) == 0
}

// Compare matches exported entries to the account's ledger by transaction ID.
func Compare(exported []model.Transaction, account model.SavingsAccount) Diff {
	live := make(map[id.ID]model.Transaction, len(account.Transactions))
	for _, t := range account.Transactions {
		live[t.ID] = t
	}

	var d Diff
	seen := make(map[id.ID]bool, len(exported))
	for _, e := range exported {
		seen[e.ID] = true
		t, ok := live[e.ID]
		switch {
		case !ok:
			d.Unknown = append(d.Unknown, e.ID)
		case t.Type != e.Type || !t.Amount.Equal(e.Amount) || !t.Balance.Equal(e.Balance):
			d.Changed = append(d.Changed, e.ID)
		default:
			d.Matched++
		}
	}
	for _, t := range account.Transactions {
		if !seen[t.ID] {
			d.Missing = append(d.Missing, t.ID)
		}
	}
	return d
}
