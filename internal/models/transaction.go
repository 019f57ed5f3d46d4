package models

import (
	"strings"
	"time"
)

type State string

const (
	StateBought        State = "BOUGHT"
	StateSold          State = "SOLD"
	StateSelling       State = "SELLING"
	StateBuying        State = "BUYING"
	StateCancelledBuy  State = "CANCELLED_BUY"
	StateCancelledSell State = "CANCELLED_SELL"
)

// NormalizeState upper-cases and trims a raw state cell.
func NormalizeState(raw string) State {
	return State(strings.ToUpper(strings.TrimSpace(raw)))
}

// Transaction is a cleaned purchase or sale line.
type Transaction struct {
	Item        string    `json:"item"`
	ItemKey     string    `json:"item_key"`
	Name        string    `json:"name"`
	Store       string    `json:"store"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    float64   `json:"quantity"`
	Date        time.Time `json:"date"`
	State       State     `json:"state,omitempty"`
	ProductCode string    `json:"product_code,omitempty"`
	TotalValue  float64   `json:"total_value"`
}

// ItemKey is the group-by key used across all aggregations.
func ItemKey(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

// LookupEntry maps a (store, item key) pair to a product code.
type LookupEntry struct {
	Store       string `json:"store"`
	ItemKey     string `json:"item_key"`
	Item        string `json:"item"`
	ProductCode int64  `json:"product_code"`
}

type LookupKey struct {
	Store   string
	ItemKey string
}

func (e LookupEntry) Key() LookupKey {
	return LookupKey{Store: e.Store, ItemKey: e.ItemKey}
}

// PriceTrend is the weighted monthly average price of one item on each side
// of the trade. A nil side had no trades that month.
type PriceTrend struct {
	ItemKey   string    `json:"item_key"`
	Month     time.Time `json:"month"`
	AvgBought *float64  `json:"weighted_avg_bought_price,omitempty"`
	AvgSold   *float64  `json:"weighted_avg_sold_price,omitempty"`
}
