package models

import (
	"time"
)

// HistoryRecord is one scrape of a product page. Nil numeric fields mean the
// page did not expose the value.
type HistoryRecord struct {
	Name         string    `json:"name"`
	PackWeight   string    `json:"pack_weight,omitempty"`
	OverallPrice *float64  `json:"overall_price,omitempty"`
	PricePerUnit *float64  `json:"price_per_unit,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	URL          string    `json:"url,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

const UnknownProductName = "Unknown"

func NewHistoryRecord(url string, scrapedAt time.Time) *HistoryRecord {
	return &HistoryRecord{
		Name:      UnknownProductName,
		URL:       url,
		ScrapedAt: scrapedAt,
	}
}

func (r *HistoryRecord) HasPrice() bool {
	return r.OverallPrice != nil
}
