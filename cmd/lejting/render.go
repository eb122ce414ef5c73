package main

import (
	"fmt"
	"io"

	"lejting/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	grapheme   = "kr"
)

// kroner formats an amount as "150.00 kr".
func kroner(amount decimal.Decimal) string {
	fraction := 2
	if cur := money.GetCurrency(models.Currency); cur != nil {
		fraction = cur.Fraction
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(fraction))
	m := money.New(amount.Mul(factor).Round(0).IntPart(), models.Currency)

	return money.NewFormatter(fraction, ".", "", grapheme, "1 $").Format(m.Amount())
}

func itemLine(item models.Item) string {
	status := models.StatusAvailable
	if !item.IsAvailable {
		status = models.StatusRented
	}
	return fmt.Sprintf("Item: %s (ID: %s) - %s/day - %s", item.Name, item.ID, kroner(item.DailyRate), status)
}

func transactionLine(tx models.Transaction) string {
	return fmt.Sprintf("Transaction %s: %s renting item %s - %s (%s)",
		tx.ID, tx.RenterName, tx.ItemID, kroner(tx.TotalCost), tx.Status())
}

func writeItemDetails(w io.Writer, item models.Item) {
	fmt.Fprintln(w, "--- Item Details ---")
	fmt.Fprintf(w, "ID: %s\n", item.ID)
	fmt.Fprintf(w, "Name: %s\n", item.Name)
	fmt.Fprintf(w, "Description: %s\n", item.Description)
	fmt.Fprintf(w, "Daily Rate: %s\n", kroner(item.DailyRate))
	if item.IsAvailable {
		fmt.Fprintf(w, "Status: %s\n", models.StatusAvailable)
		return
	}
	fmt.Fprintf(w, "Status: %s\n", models.StatusRented)
	fmt.Fprintf(w, "Rented by: %s\n", item.Renter())
	if item.RentalStart != nil && item.RentalEnd != nil {
		fmt.Fprintf(w, "Rental period: %s to %s\n", item.RentalStart.Format(dateLayout), item.RentalEnd.Format(dateLayout))
	}
}

func writeReceipt(w io.Writer, tx models.Transaction, itemName string) {
	fmt.Fprintln(w, "Rental successful!")
	fmt.Fprintf(w, "Transaction ID: %s\n", tx.ID)
	fmt.Fprintf(w, "Item: %s\n", itemName)
	fmt.Fprintf(w, "Renter: %s\n", tx.RenterName)
	fmt.Fprintf(w, "Period: %d days (%s to %s)\n", tx.Days(), tx.StartDate.Format(dateLayout), tx.EndDate.Format(dateLayout))
	fmt.Fprintf(w, "Total cost: %s\n", kroner(tx.TotalCost))
}
