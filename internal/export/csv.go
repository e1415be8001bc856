package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"isdn/internal/domain"
)

var orderHeader = []string{"Order ID", "Customer", "RDC", "Status", "Total (LKR)", "Driver", "Date"}

// OrdersCSV writes orders as CSV. Fields containing commas, quotes or newlines are quoted.
func OrdersCSV(w io.Writer, orders []domain.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return err
	}
	for _, o := range orders {
		customer := o.CustomerName
		if customer == "" {
			customer = o.CustomerID
		}
		date := ""
		if !o.Date.IsZero() {
			date = o.Date.Format(domain.DateLayout)
		}
		rec := []string{
			o.ID,
			customer,
			o.RDC,
			string(o.Status),
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			o.DriverID,
			date,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: order %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// TransactionsCSV writes the payments ledger.
func TransactionsCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Transaction ID", "Order ID", "Amount (LKR)", "Status", "Method", "Date"}); err != nil {
		return err
	}
	for _, t := range txs {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(domain.DateLayout)
		}
		if err := cw.Write([]string{t.ID, t.OrderID, strconv.FormatFloat(t.Amount, 'f', 2, 64), string(t.Status), t.Method, date}); err != nil {
			return fmt.Errorf("export: transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
