// Package export renders orders as CSV and archives exports to object storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"batterella/internal/model"
)

// Header is the column layout of an order export.
var Header = []string{
	"Order ID",
	"Timestamp",
	"Phone Number",
	"Order Type",
	"Source",
	"Items",
	"Location",
	"Status",
	"Discount Percent",
	"Original Amount",
	"Total Amount",
}

// FileName returns the download name for an export produced at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("batterella-orders-%s.csv", t.Format(time.DateOnly))
}

// WriteOrders writes the header and one row per order.
func WriteOrders(w io.Writer, orders []model.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range orders {
		o := &orders[i]
		record := []string{
			o.ID,
			o.Timestamp.Format(time.RFC3339),
			safeCell(o.Phone),
			string(o.Type),
			string(o.Source),
			safeCell(itemsText(o.Items)),
			safeCell(o.Location),
			string(o.Status),
			strconv.FormatFloat(o.DiscountApplied, 'f', -1, 64),
			strconv.FormatFloat(o.OriginalAmount, 'f', 2, 64),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for order %s: %w", o.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// safeCell prefixes free text that a spreadsheet would evaluate as a formula.
func safeCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func itemsText(items []model.CartItem) string {
	if len(items) == 0 {
		return "No items"
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		var b strings.Builder
		if item.Quantity > 1 {
			fmt.Fprintf(&b, "%dx ", item.Quantity)
		}
		b.WriteString(item.DisplayName())
		if len(item.Toppings) > 0 {
			names := make([]string, len(item.Toppings))
			for i, t := range item.Toppings {
				names[i] = t.Name
			}
			fmt.Fprintf(&b, " (Toppings: %s)", strings.Join(names, ", "))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "; ")
}
