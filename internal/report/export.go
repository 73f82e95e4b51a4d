package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Transaction Number", "Date", "Customer", "Amount", "Payment Method", "Items"}

// WalkInCustomer is recorded when no customer name was captured.
const WalkInCustomer = "Walk-in Customer"

// WriteCSV serializes the transactions as a comma-separated table, one
// row per transaction, every field double-quoted. encoding/csv only
// quotes fields on demand, so the rows are assembled by hand to match
// the export format.
func WriteCSV(w io.Writer, txs []Transaction) error {
	if err := writeCSVRow(w, exportHeader); err != nil {
		return err
	}
	for _, t := range txs {
		if err := writeCSVRow(w, exportRow(t)); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX serializes the same table as a spreadsheet.
func WriteXLSX(w io.Writer, txs []Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{
		exportHeader[0], exportHeader[1], exportHeader[2], exportHeader[3], exportHeader[4], exportHeader[5],
	}); err != nil {
		return err
	}
	for i, t := range txs {
		row := exportRow(t)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{
			row[0], row[1], row[2], t.Amount, row[4], row[5],
		}); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func exportRow(t Transaction) []string {
	customer := t.CustomerName
	if customer == "" {
		customer = WalkInCustomer
	}
	items := make([]string, len(t.Items))
	for i, item := range t.Items {
		items[i] = fmt.Sprintf("%s (%d)", item.MedicineName, item.Quantity)
	}
	return []string{
		t.Number,
		t.Date.Format(dateLayout),
		customer,
		fmt.Sprintf("%.2f", t.Amount),
		t.PaymentMethod,
		strings.Join(items, "; "),
	}
}

func writeCSVRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
