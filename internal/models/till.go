package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TillBalance represents a till balance row.
type TillBalance struct {
	TillBalanceID string          `db:"till_balance_id"`
	TillID        string          `db:"till_id"`
	Status        string          `db:"status"`
	StartTime     time.Time       `db:"start_time"`
	Total         decimal.Decimal `db:"total"`
	AuditFields
}

// StockLevel represents the on-hand quantity of a product at a location.
type StockLevel struct {
	ProductID  string          `db:"product_id"`
	LocationID string          `db:"location_id"`
	Quantity   decimal.Decimal `db:"quantity"`
}
