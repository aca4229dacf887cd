package mapping

import (
	"github.com/vetdesk/accounts/internal/core/domain"
	"github.com/vetdesk/accounts/internal/models"
)

// ToModelCustomer converts a domain Customer to a model Customer
func ToModelCustomer(d domain.Customer) models.Customer {
	return models.Customer{
		CustomerID:    d.CustomerID,
		Name:          d.Name,
		AccountTypeID: d.AccountTypeID,
		LocationID:    d.LocationID,
		Active:        d.Active,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCustomer converts a model Customer to a domain Customer
func ToDomainCustomer(m models.Customer) domain.Customer {
	return domain.Customer{
		CustomerID:    m.CustomerID,
		Name:          m.Name,
		AccountTypeID: m.AccountTypeID,
		LocationID:    m.LocationID,
		Active:        m.Active,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAccountType converts a domain AccountType to a model AccountType
func ToModelAccountType(d domain.AccountType) models.AccountType {
	return models.AccountType{
		AccountTypeID: d.AccountTypeID,
		Name:          d.Name,
		PaymentTerms:  d.PaymentTerms,
		PaymentUOM:    string(d.PaymentUOM),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccountType converts a model AccountType to a domain AccountType
func ToDomainAccountType(m models.AccountType) domain.AccountType {
	return domain.AccountType{
		AccountTypeID: m.AccountTypeID,
		Name:          m.Name,
		PaymentTerms:  m.PaymentTerms,
		PaymentUOM:    domain.PaymentUOM(m.PaymentUOM),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelTillBalance converts a domain TillBalance to a model TillBalance
func ToModelTillBalance(d domain.TillBalance) models.TillBalance {
	return models.TillBalance{
		TillBalanceID: d.TillBalanceID,
		TillID:        d.TillID,
		Status:        string(d.Status),
		StartTime:     d.StartTime,
		Total:         d.Total,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTillBalance converts a model TillBalance to a domain TillBalance
func ToDomainTillBalance(m models.TillBalance) domain.TillBalance {
	return domain.TillBalance{
		TillBalanceID: m.TillBalanceID,
		TillID:        m.TillID,
		Status:        domain.TillBalanceStatus(m.Status),
		StartTime:     m.StartTime,
		Total:         m.Total,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelStockLevel converts a domain StockLevel to a model StockLevel
func ToModelStockLevel(d domain.StockLevel) models.StockLevel {
	return models.StockLevel{
		ProductID:  d.ProductID,
		LocationID: d.LocationID,
		Quantity:   d.Quantity,
	}
}

// ToDomainStockLevel converts a model StockLevel to a domain StockLevel
func ToDomainStockLevel(m models.StockLevel) domain.StockLevel {
	return domain.StockLevel{
		ProductID:  m.ProductID,
		LocationID: m.LocationID,
		Quantity:   m.Quantity,
	}
}
