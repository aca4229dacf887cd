package mapping

import (
	"github.com/vetdesk/accounts/internal/core/domain"
	"github.com/vetdesk/accounts/internal/models"
)

// ToModelAct converts a domain FinancialAct to a model Act
func ToModelAct(d domain.FinancialAct) models.Act {
	return models.Act{
		ActID:         d.ActID,
		CustomerID:    d.CustomerID,
		Kind:          string(d.Kind),
		Status:        string(d.Status),
		StartTime:     d.StartTime,
		Total:         d.Total,
		Allocated:     d.Allocated,
		Hidden:        d.Hidden,
		Printed:       d.Printed,
		Notes:         d.Notes,
		Reference:     d.Reference,
		TillID:        d.TillID,
		TillBalanceID: d.TillBalanceID,
		Sequence:      d.Sequence,
		Participation: d.BalanceParticipation,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAct converts a model Act to a domain FinancialAct
func ToDomainAct(m models.Act) domain.FinancialAct {
	return domain.FinancialAct{
		ActID:                m.ActID,
		CustomerID:           m.CustomerID,
		Kind:                 domain.ActKind(m.Kind),
		Status:               domain.ActStatus(m.Status),
		StartTime:            m.StartTime,
		Total:                m.Total,
		Allocated:            m.Allocated,
		Hidden:               m.Hidden,
		Printed:              m.Printed,
		Notes:                m.Notes,
		Reference:            m.Reference,
		TillID:               m.TillID,
		TillBalanceID:        m.TillBalanceID,
		Sequence:             m.Sequence,
		BalanceParticipation: m.Participation,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelActItem converts a domain ActItem to a model ActItem
func ToModelActItem(d domain.ActItem) models.ActItem {
	return models.ActItem{
		ItemID:          d.ItemID,
		ActID:           d.ActID,
		Total:           d.Total,
		ProductID:       d.ProductID,
		PatientID:       d.PatientID,
		Quantity:        d.Quantity,
		Method:          string(d.Method),
		RoundedAmount:   d.RoundedAmount,
		Tendered:        d.Tendered,
		Change:          d.Change,
		ClinicalLinkIDs: d.ClinicalLinkIDs,
	}
}

// ToDomainActItem converts a model ActItem to a domain ActItem
func ToDomainActItem(m models.ActItem) domain.ActItem {
	return domain.ActItem{
		ItemID:          m.ItemID,
		ActID:           m.ActID,
		Total:           m.Total,
		ProductID:       m.ProductID,
		PatientID:       m.PatientID,
		Quantity:        m.Quantity,
		Method:          domain.PaymentMethod(m.Method),
		RoundedAmount:   m.RoundedAmount,
		Tendered:        m.Tendered,
		Change:          m.Change,
		ClinicalLinkIDs: m.ClinicalLinkIDs,
	}
}

// ToDomainActSlice converts a slice of model Acts to domain FinancialActs
func ToDomainActSlice(ms []models.Act) []domain.FinancialAct {
	ds := make([]domain.FinancialAct, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAct(m)
	}
	return ds
}

// ToModelAllocation converts a domain Allocation to a model Allocation
func ToModelAllocation(d domain.Allocation) models.Allocation {
	return models.Allocation{SourceID: d.SourceID, TargetID: d.TargetID, Amount: d.Amount}
}

// ToDomainAllocation converts a model Allocation to a domain Allocation
func ToDomainAllocation(m models.Allocation) domain.Allocation {
	return domain.Allocation{SourceID: m.SourceID, TargetID: m.TargetID, Amount: m.Amount}
}

// ToModelReversal converts a domain Reversal to a model Reversal
func ToModelReversal(d domain.Reversal) models.Reversal {
	return models.Reversal{
		SourceID:  d.SourceID,
		TargetID:  d.TargetID,
		Notes:     d.Notes,
		Reference: d.Reference,
		CreatedAt: d.CreatedAt,
		CreatedBy: d.CreatedBy,
	}
}

// ToDomainReversal converts a model Reversal to a domain Reversal
func ToDomainReversal(m models.Reversal) domain.Reversal {
	return domain.Reversal{
		SourceID:  m.SourceID,
		TargetID:  m.TargetID,
		Notes:     m.Notes,
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}
