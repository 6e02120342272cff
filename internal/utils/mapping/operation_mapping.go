package mapping

import (
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/models"
)

// ToModelOperation converts a domain Operation to a model Operation
func ToModelOperation(d domain.Operation) models.Operation {
	return models.Operation{
		OperationID:     d.OperationID,
		AssetID:         d.AssetID,
		Type:            models.OperationType(d.Type),
		Status:          models.OperationStatus(d.Status),
		Payload:         d.Payload,
		InitiatedBy:     d.InitiatedBy,
		ApprovedBy:      d.ApprovedBy,
		RejectedBy:      d.RejectedBy,
		RejectionReason: d.RejectionReason,
		ProviderTaskID:  d.ProviderTaskID,
		TransactionHash: d.TransactionHash,
		FailureReason:   d.FailureReason,
		IdempotencyKey:  d.IdempotencyKey,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOperation converts a model Operation to a domain Operation
func ToDomainOperation(m models.Operation) domain.Operation {
	return domain.Operation{
		OperationID:     m.OperationID,
		AssetID:         m.AssetID,
		Type:            domain.OperationType(m.Type),
		Status:          domain.OperationStatus(m.Status),
		Payload:         m.Payload,
		InitiatedBy:     m.InitiatedBy,
		ApprovedBy:      m.ApprovedBy,
		RejectedBy:      m.RejectedBy,
		RejectionReason: m.RejectionReason,
		ProviderTaskID:  m.ProviderTaskID,
		TransactionHash: m.TransactionHash,
		FailureReason:   m.FailureReason,
		IdempotencyKey:  m.IdempotencyKey,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainOperationSlice converts a slice of model Operations to domain Operations
func ToDomainOperationSlice(ms []models.Operation) []domain.Operation {
	ds := make([]domain.Operation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainOperation(m)
	}
	return ds
}
