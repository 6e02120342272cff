package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	"github.com/tokencustody/token_custody_app/internal/models"
	"github.com/tokencustody/token_custody_app/internal/utils/mapping"
	"github.com/tokencustody/token_custody_app/internal/utils/pagination"
)

const operationColumns = `operation_id, asset_id, operation_type, status, payload, initiated_by, approved_by,
	rejected_by, rejection_reason, provider_task_id, transaction_hash, failure_reason, idempotency_key,
	created_at, created_by, last_updated_at, last_updated_by`

// activeOperationIndex is the partial unique index that enforces at most one
// non-terminal operation per custody record at the database layer.
const activeOperationIndex = "operations_one_active_per_asset"

type PgxOperationRepository struct {
	BaseRepository
}

// newPgxOperationRepository creates a new repository for custody operations.
func newPgxOperationRepository(pool *pgxpool.Pool) portsrepo.OperationRepositoryFacade {
	return &PgxOperationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxOperationRepository implements portsrepo.OperationRepositoryFacade
var _ portsrepo.OperationRepositoryFacade = (*PgxOperationRepository)(nil)

// CreateOperation inserts a PENDING_CHECKER operation and its audit entry in
// one transaction. A violation of the one-active-operation index maps to
// ErrConcurrentOperation so racing initiators get a precise error.
func (r *PgxOperationRepository) CreateOperation(ctx context.Context, op domain.Operation, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelOperation(op)
	query := `
		INSERT INTO operations (
			operation_id, asset_id, operation_type, status, payload, initiated_by, idempotency_key,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, query,
		m.OperationID,
		m.AssetID,
		m.Type,
		m.Status,
		m.Payload,
		m.InitiatedBy,
		m.IdempotencyKey,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == activeOperationIndex {
				return apperrors.ErrConcurrentOperation
			}
			return apperrors.NewAppError(409, "operation already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert operation "+m.OperationID, err)
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// conditionalUpdate runs an operation update plus its audit entry in one
// transaction. The update must be written so it matches zero rows when the
// operation is not in the expected status; that case maps to ErrConflict and
// nothing is committed.
func (r *PgxOperationRepository) conditionalUpdate(ctx context.Context, operationID, query string, entry domain.AuditLogEntry, args ...interface{}) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	cmdTag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update operation "+operationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// MarkApproved moves PENDING_CHECKER -> APPROVED and records the checker.
func (r *PgxOperationRepository) MarkApproved(ctx context.Context, operationID, checkerID string, now time.Time, entry domain.AuditLogEntry) error {
	query := `
		UPDATE operations
		SET status = 'APPROVED', approved_by = $2, last_updated_at = $3, last_updated_by = $2
		WHERE operation_id = $1 AND status = 'PENDING_CHECKER';
	`
	return r.conditionalUpdate(ctx, operationID, query, entry, operationID, checkerID, now)
}

// MarkRejected moves PENDING_CHECKER -> REJECTED with the checker's reason.
func (r *PgxOperationRepository) MarkRejected(ctx context.Context, operationID, checkerID, reason string, now time.Time, entry domain.AuditLogEntry) error {
	query := `
		UPDATE operations
		SET status = 'REJECTED', rejected_by = $2, rejection_reason = $3, last_updated_at = $4, last_updated_by = $2
		WHERE operation_id = $1 AND status = 'PENDING_CHECKER';
	`
	return r.conditionalUpdate(ctx, operationID, query, entry, operationID, checkerID, reason, now)
}

// RecordSubmission stores the provider task handle on an APPROVED operation.
func (r *PgxOperationRepository) RecordSubmission(ctx context.Context, operationID, taskID string, now time.Time, entry domain.AuditLogEntry) error {
	query := `
		UPDATE operations
		SET provider_task_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1 AND status = 'APPROVED' AND provider_task_id IS NULL;
	`
	return r.conditionalUpdate(ctx, operationID, query, entry, operationID, taskID, now, domain.SystemActorID)
}

// MarkFailed moves an operation in fromStatus to FAILED with the reason.
func (r *PgxOperationRepository) MarkFailed(ctx context.Context, operationID string, fromStatus domain.OperationStatus, reason string, now time.Time, entry domain.AuditLogEntry) error {
	query := `
		UPDATE operations
		SET status = 'FAILED', failure_reason = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1 AND status = $5;
	`
	return r.conditionalUpdate(ctx, operationID, query, entry, operationID, reason, now, domain.SystemActorID, string(fromStatus))
}

// MarkExecuted applies the terminal-success transition: operation EXECUTED,
// custody record advanced with token metadata, optional ownership seeding and
// the audit entry, all in one transaction. The operation update is conditional
// on APPROVED so a stale poll response can never regress a terminal state.
func (r *PgxOperationRepository) MarkExecuted(ctx context.Context, params portsrepo.ExecutedParams) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	opQuery := `
		UPDATE operations
		SET status = 'EXECUTED', transaction_hash = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1 AND status = 'APPROVED';
	`
	cmdTag, err := tx.Exec(ctx, opQuery, params.OperationID, params.TransactionHash, params.Now, domain.SystemActorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark operation "+params.OperationID+" executed", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	if err := r.advanceCustodyInTx(ctx, tx, params); err != nil {
		return err
	}

	if params.SeedOwnerID != nil && params.SeedQuantity != nil {
		ownQuery := `
			INSERT INTO ownerships (asset_id, owner_id, quantity, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $4, $5)
			ON CONFLICT (asset_id, owner_id)
			DO UPDATE SET quantity = ownerships.quantity + EXCLUDED.quantity, last_updated_at = $4, last_updated_by = $5;
		`
		if _, err := tx.Exec(ctx, ownQuery, params.AssetID, *params.SeedOwnerID, *params.SeedQuantity, params.Now, domain.SystemActorID); err != nil {
			return apperrors.NewAppError(500, "failed to seed ownership for asset "+params.AssetID, err)
		}
	}

	if err := appendAuditEntryInTx(ctx, tx, params.Entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// advanceCustodyInTx moves the custody record forward as part of MarkExecuted.
// The update is conditional on the record's current status so the forward
// lattice holds even if rows were touched concurrently.
func (r *PgxOperationRepository) advanceCustodyInTx(ctx context.Context, tx pgx.Tx, params portsrepo.ExecutedParams) error {
	var cmdTag pgconn.CommandTag
	var err error

	switch params.NewCustodyStatus {
	case domain.CustodyMinted:
		query := `
			UPDATE custody_records
			SET status = 'MINTED', blockchain = $2, token_standard = $3, token_address = $4, token_id = $5,
			    token_quantity = $6, minted_at = $7, last_updated_at = $7, last_updated_by = $8
			WHERE asset_id = $1 AND status = 'LINKED';
		`
		token := params.Token
		if token == nil {
			return apperrors.NewAppError(500, "token metadata required to mint asset "+params.AssetID, nil)
		}
		cmdTag, err = tx.Exec(ctx, query, params.AssetID,
			token.Blockchain, token.TokenStandard, token.TokenAddress, token.TokenID, token.Quantity,
			params.Now, domain.SystemActorID)
	case domain.CustodyBurned:
		query := `
			UPDATE custody_records
			SET status = 'BURNED', burned_at = $2, last_updated_at = $2, last_updated_by = $3
			WHERE asset_id = $1 AND status = 'MINTED';
		`
		cmdTag, err = tx.Exec(ctx, query, params.AssetID, params.Now, domain.SystemActorID)
	default:
		// TRANSFER keeps the record MINTED; only the vault reference moves.
		query := `
			UPDATE custody_records
			SET vault_ref = COALESCE($2, vault_ref), last_updated_at = $3, last_updated_by = $4
			WHERE asset_id = $1 AND status = 'MINTED';
		`
		cmdTag, err = tx.Exec(ctx, query, params.AssetID, params.NewVaultRef, params.Now, domain.SystemActorID)
	}

	if err != nil {
		return apperrors.NewAppError(500, "failed to advance custody record for asset "+params.AssetID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func scanOperation(row pgx.Row) (*models.Operation, error) {
	var m models.Operation
	err := row.Scan(
		&m.OperationID,
		&m.AssetID,
		&m.Type,
		&m.Status,
		&m.Payload,
		&m.InitiatedBy,
		&m.ApprovedBy,
		&m.RejectedBy,
		&m.RejectionReason,
		&m.ProviderTaskID,
		&m.TransactionHash,
		&m.FailureReason,
		&m.IdempotencyKey,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgxOperationRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Operation, error) {
	m, err := scanOperation(r.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("operation not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find operation", err)
	}
	op := mapping.ToDomainOperation(*m)
	return &op, nil
}

// FindOperationByID retrieves an operation by its ID.
func (r *PgxOperationRepository) FindOperationByID(ctx context.Context, operationID string) (*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE operation_id = $1;`
	return r.findOne(ctx, query, operationID)
}

// FindOperationByIdempotencyKey retrieves the operation created with the key.
func (r *PgxOperationRepository) FindOperationByIdempotencyKey(ctx context.Context, key string) (*domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE idempotency_key = $1;`
	return r.findOne(ctx, query, key)
}

// FindActiveOperationByAssetID retrieves the non-terminal operation for an
// asset. The partial unique index guarantees there is at most one.
func (r *PgxOperationRepository) FindActiveOperationByAssetID(ctx context.Context, assetID string) (*domain.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE asset_id = $1 AND status IN ('PENDING_CHECKER', 'APPROVED');
	`
	return r.findOne(ctx, query, assetID)
}

// ListSubmittedOperations retrieves APPROVED operations holding a task handle.
func (r *PgxOperationRepository) ListSubmittedOperations(ctx context.Context) ([]domain.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE status = 'APPROVED' AND provider_task_id IS NOT NULL
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query submitted operations", err)
	}
	defer rows.Close()

	ops := []models.Operation{}
	for rows.Next() {
		m, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan operation row", scanErr)
		}
		ops = append(ops, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating operation rows", err)
	}
	return mapping.ToDomainOperationSlice(ops), nil
}

// ListOperationsByAssetID retrieves a paginated list of operations, newest first.
func (r *PgxOperationRepository) ListOperationsByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.Operation, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + operationColumns + ` FROM operations WHERE asset_id = $1`
	orderByClause := `ORDER BY created_at DESC, operation_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{assetID}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastOperationID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause := `AND (created_at, operation_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastOperationID)
		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query operations for asset "+assetID, err)
	}
	defer rows.Close()

	ops := []models.Operation{}
	for rows.Next() {
		m, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan operation row", scanErr)
		}
		ops = append(ops, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating operation rows", err)
	}

	var nextTokenVal *string
	results := ops
	if len(ops) > limit {
		last := ops[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.OperationID)
		nextTokenVal = &token
		results = ops[:limit]
	}

	return mapping.ToDomainOperationSlice(results), nextTokenVal, nil
}
