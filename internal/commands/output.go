package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/savings"
)

const dateLayout = "2006-01-02"

// table writes tab separated rows aligned into columns.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error { return t.tw.Flush() }

func naira(d decimal.Decimal) string { return calc.FormatNaira(d) }

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func parseAmount(flag, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q", flag, raw)
	}
	return d, nil
}

// lookupAccount resolves an account reference, either its ID or its account
// number, against the mirrored book.
func lookupAccount(book *savings.Book, ref string) (id.ID, bool) {
	if book.Exists(id.ID(ref)) {
		return id.ID(ref), true
	}
	for _, a := range book.All() {
		if a.AccountNumber == ref {
			return a.ID, true
		}
	}
	return "", false
}

// added returns the newest element of after whose key is absent from before.
// It finds the record a mutation created when the reply did not echo it.
func added[T any](before, after []T, key func(T) id.ID) (T, bool) {
	seen := make(map[id.ID]struct{}, len(before))
	for _, v := range before {
		seen[key(v)] = struct{}{}
	}
	for i := len(after) - 1; i >= 0; i-- {
		if _, ok := seen[key(after[i])]; !ok {
			return after[i], true
		}
	}
	var zero T
	return zero, false
}
