package cleaner

import (
	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

// OutputColumns is the layout of a cleaned transactions sheet. It carries
// every required column, so a cleaned file can be cleaned again unchanged.
var OutputColumns = []string{
	ColStore, ColLocation, ColItem, ColItemKey, ColName, ColCategory,
	ColPrice, ColQuantity, ColDate, ColState, ColProductCode, ColTotalValue,
}

func ToSheet(name string, txns []models.Transaction) sheet.Sheet {
	rows := make([][]any, 0, len(txns))
	for _, tx := range txns {
		rows = append(rows, []any{
			tx.Store,
			tx.Location,
			tx.Item,
			tx.ItemKey,
			tx.Name,
			tx.Category,
			tx.Price,
			tx.Quantity,
			tx.Date.Format("2006-01-02"),
			string(tx.State),
			tx.ProductCode,
			tx.TotalValue,
		})
	}
	return sheet.Sheet{Name: name, Headers: OutputColumns, Rows: rows}
}
