package mapping

import (
	"encoding/json"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/models"
)

// ToModelAuditLogEntry converts a domain AuditLogEntry to a model entry,
// marshaling the metadata map to JSON for the JSONB column.
func ToModelAuditLogEntry(d domain.AuditLogEntry) (models.AuditLogEntry, error) {
	m := models.AuditLogEntry{
		EntryID:     d.EntryID,
		EventType:   string(d.EventType),
		ActorID:     d.ActorID,
		OperationID: d.OperationID,
		AssetID:     d.AssetID,
		CreatedAt:   d.CreatedAt,
	}
	if d.Metadata != nil {
		raw, err := json.Marshal(d.Metadata)
		if err != nil {
			return models.AuditLogEntry{}, err
		}
		m.Metadata = raw
	}
	return m, nil
}

// ToDomainAuditLogEntry converts a model AuditLogEntry to a domain entry.
func ToDomainAuditLogEntry(m models.AuditLogEntry) domain.AuditLogEntry {
	d := domain.AuditLogEntry{
		EntryID:     m.EntryID,
		EventType:   domain.AuditEventType(m.EventType),
		ActorID:     m.ActorID,
		OperationID: m.OperationID,
		AssetID:     m.AssetID,
		CreatedAt:   m.CreatedAt,
	}
	if len(m.Metadata) > 0 {
		// Unmarshal errors leave metadata nil rather than failing the read;
		// the ledger row itself is still returned.
		var meta map[string]any
		if err := json.Unmarshal(m.Metadata, &meta); err == nil {
			d.Metadata = meta
		}
	}
	return d
}

// ToDomainAuditLogEntrySlice converts a slice of model entries to domain entries
func ToDomainAuditLogEntrySlice(ms []models.AuditLogEntry) []domain.AuditLogEntry {
	ds := make([]domain.AuditLogEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAuditLogEntry(m)
	}
	return ds
}
