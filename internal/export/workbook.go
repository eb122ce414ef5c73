package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lejting/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ItemsSheet        = "Items"
	TransactionsSheet = "Transactions"

	dateLayout = "2006-01-02"
)

var (
	itemHeaders = []string{"ID", "Name", "Daily rate", "Description", "Status", "Rented by", "From", "To"}
	txHeaders   = []string{"Transaction", "Item", "Renter", "From", "To", "Days", "Total cost", "Status"}
)

// FileName returns the default export file name for a moment in time.
func FileName(at time.Time) string {
	return fmt.Sprintf("lejting_export_%s.xlsx", at.Format("20060102_150405"))
}

// Workbook writes the item catalog and the transaction history to an xlsx
// file at path, creating the directory if needed.
func Workbook(path string, items []models.Item, transactions []models.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", ItemsSheet); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	if err := writeRow(f, ItemsSheet, 1, toAny(itemHeaders)); err != nil {
		return err
	}
	for i, item := range items {
		if err := writeRow(f, ItemsSheet, i+2, itemRow(item)); err != nil {
			return err
		}
	}

	if err := writeRow(f, TransactionsSheet, 1, toAny(txHeaders)); err != nil {
		return err
	}
	for i, tx := range transactions {
		if err := writeRow(f, TransactionsSheet, i+2, transactionRow(tx)); err != nil {
			return err
		}
	}

	for _, sheet := range []string{ItemsSheet, TransactionsSheet} {
		_ = f.SetCellStyle(sheet, "A1", "H1", headerStyle)
		_ = f.SetColWidth(sheet, "A", "H", 18)
	}
	_ = f.SetColWidth(ItemsSheet, "D", "D", 40)

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("error writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func itemRow(item models.Item) []any {
	status := models.StatusAvailable
	var from, to string
	if !item.IsAvailable {
		status = models.StatusRented
		if item.RentalStart != nil {
			from = item.RentalStart.Format(dateLayout)
		}
		if item.RentalEnd != nil {
			to = item.RentalEnd.Format(dateLayout)
		}
	}
	return []any{
		item.ID,
		item.Name,
		item.DailyRate.InexactFloat64(),
		item.Description,
		status,
		item.Renter(),
		from,
		to,
	}
}

func transactionRow(tx models.Transaction) []any {
	return []any{
		tx.ID,
		tx.ItemID,
		tx.RenterName,
		tx.StartDate.Format(dateLayout),
		tx.EndDate.Format(dateLayout),
		tx.Days(),
		tx.TotalCost.InexactFloat64(),
		tx.Status(),
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
