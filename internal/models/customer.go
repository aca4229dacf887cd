package models

// Customer represents a customer row.
type Customer struct {
	CustomerID    string `db:"customer_id"`
	Name          string `db:"name"`
	AccountTypeID string `db:"account_type_id"` // nullable
	LocationID    string `db:"location_id"`     // nullable
	Active        bool   `db:"active"`
	AuditFields
}

// AccountType represents an account type classification row.
type AccountType struct {
	AccountTypeID string `db:"account_type_id"`
	Name          string `db:"name"`
	PaymentTerms  int    `db:"payment_terms"`
	PaymentUOM    string `db:"payment_uom"`
	AuditFields
}
