package pgsql

import (
	"context"
	"errors"
	"strconv"

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

const custodyColumns = `asset_id, status, vault_ref, blockchain, token_standard, token_address, token_id, token_quantity,
	linked_at, minted_at, withdrawn_at, burned_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxCustodyRepository struct {
	BaseRepository
}

// newPgxCustodyRepository creates a new repository for custody records.
func newPgxCustodyRepository(pool *pgxpool.Pool) portsrepo.CustodyRecordRepositoryFacade {
	return &PgxCustodyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxCustodyRepository implements portsrepo.CustodyRecordRepositoryFacade
var _ portsrepo.CustodyRecordRepositoryFacade = (*PgxCustodyRepository)(nil)

// CreateCustodyRecord persists a newly linked record and its audit entry in
// one transaction.
func (r *PgxCustodyRepository) CreateCustodyRecord(ctx context.Context, record domain.CustodyRecord, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelCustodyRecord(record)
	query := `
		INSERT INTO custody_records (
			asset_id, status, vault_ref, linked_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = tx.Exec(ctx, query,
		m.AssetID,
		m.Status,
		m.VaultRef,
		m.LinkedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewAppError(409, "custody record already exists for asset "+m.AssetID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert custody record "+m.AssetID, err)
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanCustodyRecord(row pgx.Row) (*models.CustodyRecord, error) {
	var m models.CustodyRecord
	err := row.Scan(
		&m.AssetID,
		&m.Status,
		&m.VaultRef,
		&m.Blockchain,
		&m.TokenStandard,
		&m.TokenAddress,
		&m.TokenID,
		&m.TokenQuantity,
		&m.LinkedAt,
		&m.MintedAt,
		&m.WithdrawnAt,
		&m.BurnedAt,
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

// FindCustodyRecordByID retrieves the custody record for an asset.
func (r *PgxCustodyRepository) FindCustodyRecordByID(ctx context.Context, assetID string) (*domain.CustodyRecord, error) {
	query := `SELECT ` + custodyColumns + ` FROM custody_records WHERE asset_id = $1;`

	m, err := scanCustodyRecord(r.Pool.QueryRow(ctx, query, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("custody record for asset " + assetID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find custody record for asset "+assetID, err)
	}

	record := mapping.ToDomainCustodyRecord(*m)
	return &record, nil
}

// ListCustodyRecords retrieves a paginated list of records, newest first.
func (r *PgxCustodyRepository) ListCustodyRecords(ctx context.Context, limit int, nextToken *string) ([]domain.CustodyRecord, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + custodyColumns + ` FROM custody_records`
	orderByClause := `ORDER BY created_at DESC, asset_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastAssetID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause := `WHERE (created_at, asset_id) < ($1, $2)`
		args = append(args, lastCreatedAt, lastAssetID)
		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query custody records", err)
	}
	defer rows.Close()

	records := []models.CustodyRecord{}
	for rows.Next() {
		m, scanErr := scanCustodyRecord(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan custody record row", scanErr)
		}
		records = append(records, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating custody record rows", err)
	}

	var nextTokenVal *string
	results := records
	if len(records) > limit {
		last := records[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.AssetID)
		nextTokenVal = &token
		results = records[:limit]
	}

	return mapping.ToDomainCustodyRecordSlice(results), nextTokenVal, nil
}
