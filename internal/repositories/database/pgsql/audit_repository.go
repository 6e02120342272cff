package pgsql

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	"github.com/tokencustody/token_custody_app/internal/models"
	"github.com/tokencustody/token_custody_app/internal/utils/mapping"
	"github.com/tokencustody/token_custody_app/internal/utils/pagination"
)

// auditColumns is the column list shared by every audit query.
const auditColumns = "entry_id, event_type, actor_id, operation_id, asset_id, metadata, created_at"

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the audit ledger.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAuditRepository implements portsrepo.AuditRepositoryFacade
var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// appendAuditEntryInTx inserts an audit entry as part of an enclosing
// transaction. All state-changing repository methods use this so the ledger
// entry commits or rolls back together with the state change it records.
func appendAuditEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLogEntry) error {
	modelEntry, err := mapping.ToModelAuditLogEntry(entry)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode audit metadata for entry "+entry.EntryID, err)
	}
	query := `
		INSERT INTO audit_log (entry_id, event_type, actor_id, operation_id, asset_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, query,
		modelEntry.EntryID,
		modelEntry.EventType,
		modelEntry.ActorID,
		modelEntry.OperationID,
		modelEntry.AssetID,
		modelEntry.Metadata,
		modelEntry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to append audit entry "+entry.EntryID, err)
	}
	return nil
}

// AppendAuditEntry writes a standalone entry outside any state change.
func (r *PgxAuditRepository) AppendAuditEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanAuditRows(rows pgx.Rows) ([]models.AuditLogEntry, error) {
	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var m models.AuditLogEntry
		if err := rows.Scan(
			&m.EntryID,
			&m.EventType,
			&m.ActorID,
			&m.OperationID,
			&m.AssetID,
			&m.Metadata,
			&m.CreatedAt,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit entry row", err)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating audit entry rows", err)
	}
	return entries, nil
}

// ListAuditByOperationID retrieves every entry for an operation in
// non-decreasing timestamp order.
func (r *PgxAuditRepository) ListAuditByOperationID(ctx context.Context, operationID string) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_log
		WHERE operation_id = $1
		ORDER BY created_at, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, operationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit entries for operation "+operationID, err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainAuditLogEntrySlice(entries), nil
}

// ListAuditByAssetID retrieves a paginated list of entries for an asset,
// oldest first, using token-based pagination.
func (r *PgxAuditRepository) ListAuditByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + auditColumns + `
		FROM audit_log
		WHERE asset_id = $1
	`
	orderByClause := `ORDER BY created_at, entry_id`

	var rows pgx.Rows
	var err error
	args := []interface{}{assetID}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastEntryID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause := `AND (created_at, entry_id) > ($2, $3)`
		args = append(args, lastCreatedAt, lastEntryID)
		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query audit entries for asset "+assetID, err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, nil, err
	}

	var nextTokenVal *string
	results := entries
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextTokenVal = &token
		results = entries[:limit]
	}

	return mapping.ToDomainAuditLogEntrySlice(results), nextTokenVal, nil
}
