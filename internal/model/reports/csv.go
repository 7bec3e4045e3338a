package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// WriteCSV renders a summary as CSV: a totals header block followed by the
// per-category expense rows.
func WriteCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"year", "month", "income", "expense", "balance"},
		{
			fmt.Sprint(s.Year),
			fmt.Sprint(int(s.Month)),
			s.Income.StringFixed(2),
			s.Expense.StringFixed(2),
			s.Balance.StringFixed(2),
		},
		{""},
		{"category", "spent"},
	}
	for _, line := range s.Expenses {
		rows = append(rows, []string{line.Category, line.Amount.StringFixed(2)})
	}

	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}
