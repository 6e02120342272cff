package mapping

import (
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/models"
)

// ToModelCustodyRecord converts a domain CustodyRecord to a model CustodyRecord
func ToModelCustodyRecord(d domain.CustodyRecord) models.CustodyRecord {
	m := models.CustodyRecord{
		AssetID:     d.AssetID,
		Status:      models.CustodyStatus(d.Status),
		VaultRef:    d.VaultRef,
		LinkedAt:    d.LinkedAt,
		MintedAt:    d.MintedAt,
		WithdrawnAt: d.WithdrawnAt,
		BurnedAt:    d.BurnedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.Token != nil {
		m.Blockchain = &d.Token.Blockchain
		m.TokenStandard = &d.Token.TokenStandard
		m.TokenAddress = &d.Token.TokenAddress
		m.TokenID = &d.Token.TokenID
		q := d.Token.Quantity
		m.TokenQuantity = &q
	}
	return m
}

// ToDomainCustodyRecord converts a model CustodyRecord to a domain CustodyRecord
func ToDomainCustodyRecord(m models.CustodyRecord) domain.CustodyRecord {
	d := domain.CustodyRecord{
		AssetID:     m.AssetID,
		Status:      domain.CustodyStatus(m.Status),
		VaultRef:    m.VaultRef,
		LinkedAt:    m.LinkedAt,
		MintedAt:    m.MintedAt,
		WithdrawnAt: m.WithdrawnAt,
		BurnedAt:    m.BurnedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	// Token metadata is only meaningful once all columns are populated, which
	// happens in one transaction at mint time.
	if m.TokenAddress != nil {
		token := domain.TokenInfo{TokenAddress: *m.TokenAddress}
		if m.Blockchain != nil {
			token.Blockchain = *m.Blockchain
		}
		if m.TokenStandard != nil {
			token.TokenStandard = *m.TokenStandard
		}
		if m.TokenID != nil {
			token.TokenID = *m.TokenID
		}
		if m.TokenQuantity != nil {
			token.Quantity = *m.TokenQuantity
		}
		d.Token = &token
	}
	return d
}

// ToDomainCustodyRecordSlice converts a slice of model records to domain records
func ToDomainCustodyRecordSlice(ms []models.CustodyRecord) []domain.CustodyRecord {
	ds := make([]domain.CustodyRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCustodyRecord(m)
	}
	return ds
}
