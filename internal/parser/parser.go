package parser

import (
	"github.com/maltedev/price-ledger/internal/models"
)

// Parser turns a product page into a history record. Missing page elements
// leave fields empty; only unreadable markup is an error.
type Parser interface {
	ParseProductPage(html string, record *models.HistoryRecord) error
}
