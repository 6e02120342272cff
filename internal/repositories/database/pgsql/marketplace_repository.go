package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	"github.com/tokencustody/token_custody_app/internal/models"
	"github.com/tokencustody/token_custody_app/internal/utils/mapping"
)

const listingColumns = `listing_id, asset_id, seller_id, price, currency, status, sold_price, expires_at,
	created_at, created_by, last_updated_at, last_updated_by`

const bidColumns = `bid_id, listing_id, buyer_id, amount, status,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxMarketplaceRepository struct {
	BaseRepository
}

// newPgxMarketplaceRepository creates a new repository for listings, bids and
// the ownership/balance ledger.
func newPgxMarketplaceRepository(pool *pgxpool.Pool) portsrepo.MarketplaceRepositoryFacade {
	return &PgxMarketplaceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxMarketplaceRepository implements portsrepo.MarketplaceRepositoryFacade
var _ portsrepo.MarketplaceRepositoryFacade = (*PgxMarketplaceRepository)(nil)

// CreateListing persists an ACTIVE listing and its audit entry in one transaction.
func (r *PgxMarketplaceRepository) CreateListing(ctx context.Context, listing domain.Listing, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelListing(listing)
	query := `
		INSERT INTO listings (
			listing_id, asset_id, seller_id, price, currency, status, expires_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, query,
		m.ListingID,
		m.AssetID,
		m.SellerID,
		m.Price,
		m.Currency,
		m.Status,
		m.ExpiresAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewAppError(409, "listing already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert listing "+m.ListingID, err)
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// CancelListing moves ACTIVE -> CANCELLED; zero rows means the listing already
// left the active state and maps to ErrConflict.
func (r *PgxMarketplaceRepository) CancelListing(ctx context.Context, listingID, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE listings
		SET status = 'CANCELLED', last_updated_at = $2, last_updated_by = $3
		WHERE listing_id = $1 AND status = 'ACTIVE';
	`
	cmdTag, err := tx.Exec(ctx, query, listingID, now, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to cancel listing "+listingID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ExpireListings flips every ACTIVE listing past its expiry to EXPIRED with one
// audit entry per listing. Already-expired listings never match the UPDATE, so
// repeated sweeps over the same window are no-ops.
func (r *PgxMarketplaceRepository) ExpireListings(ctx context.Context, asOf time.Time) ([]string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE listings
		SET status = 'EXPIRED', last_updated_at = $1, last_updated_by = $2
		WHERE status = 'ACTIVE' AND expires_at <= $1
		RETURNING listing_id, asset_id;
	`
	rows, err := tx.Query(ctx, query, asOf, domain.SystemActorID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to expire listings", err)
	}

	type expired struct {
		listingID string
		assetID   string
	}
	expiredListings := []expired{}
	for rows.Next() {
		var e expired
		if scanErr := rows.Scan(&e.listingID, &e.assetID); scanErr != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "failed to scan expired listing row", scanErr)
		}
		expiredListings = append(expiredListings, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating expired listing rows", err)
	}

	ids := make([]string, 0, len(expiredListings))
	for _, e := range expiredListings {
		assetID := e.assetID
		entry := domain.AuditLogEntry{
			EntryID:   uuid.NewString(),
			EventType: domain.AuditListingExpired,
			ActorID:   domain.SystemActorID,
			AssetID:   &assetID,
			Metadata:  map[string]any{"listingID": e.listingID},
			CreatedAt: asOf,
		}
		if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
			return nil, err
		}
		ids = append(ids, e.listingID)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateBid persists a PENDING bid and its audit entry in one transaction.
func (r *PgxMarketplaceRepository) CreateBid(ctx context.Context, bid domain.Bid, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelBid(bid)
	query := `
		INSERT INTO bids (
			bid_id, listing_id, buyer_id, amount, status,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, query,
		m.BidID,
		m.ListingID,
		m.BuyerID,
		m.Amount,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewAppError(409, "bid already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert bid "+m.BidID, err)
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// MarkBidRejected moves PENDING -> REJECTED; zero rows maps to ErrConflict.
func (r *PgxMarketplaceRepository) MarkBidRejected(ctx context.Context, bidID, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE bids
		SET status = 'REJECTED', last_updated_at = $2, last_updated_by = $3
		WHERE bid_id = $1 AND status = 'PENDING';
	`
	cmdTag, err := tx.Exec(ctx, query, bidID, now, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to reject bid "+bidID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var m models.Listing
	err := row.Scan(
		&m.ListingID,
		&m.AssetID,
		&m.SellerID,
		&m.Price,
		&m.Currency,
		&m.Status,
		&m.SoldPrice,
		&m.ExpiresAt,
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

func scanBid(row pgx.Row) (*models.Bid, error) {
	var m models.Bid
	err := row.Scan(
		&m.BidID,
		&m.ListingID,
		&m.BuyerID,
		&m.Amount,
		&m.Status,
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

// FindListingByID retrieves a listing by its unique identifier.
func (r *PgxMarketplaceRepository) FindListingByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE listing_id = $1;`
	m, err := scanListing(r.Pool.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("listing " + listingID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find listing "+listingID, err)
	}
	listing := mapping.ToDomainListing(*m)
	return &listing, nil
}

// ListListingsByAssetID retrieves all listings for an asset, newest first.
func (r *PgxMarketplaceRepository) ListListingsByAssetID(ctx context.Context, assetID string) ([]domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE asset_id = $1
		ORDER BY created_at DESC, listing_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query listings for asset "+assetID, err)
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		m, scanErr := scanListing(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan listing row", scanErr)
		}
		listings = append(listings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating listing rows", err)
	}
	return mapping.ToDomainListingSlice(listings), nil
}

// FindBidByID retrieves a bid by its unique identifier.
func (r *PgxMarketplaceRepository) FindBidByID(ctx context.Context, bidID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE bid_id = $1;`
	m, err := scanBid(r.Pool.QueryRow(ctx, query, bidID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("bid " + bidID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find bid "+bidID, err)
	}
	bid := mapping.ToDomainBid(*m)
	return &bid, nil
}

// ListBidsByListingID retrieves all bids against a listing, newest first.
func (r *PgxMarketplaceRepository) ListBidsByListingID(ctx context.Context, listingID string) ([]domain.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE listing_id = $1
		ORDER BY created_at DESC, bid_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bids for listing "+listingID, err)
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		m, scanErr := scanBid(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bid row", scanErr)
		}
		bids = append(bids, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bid rows", err)
	}
	return mapping.ToDomainBidSlice(bids), nil
}

// GetOwnership retrieves the ownership row for (assetID, ownerID).
func (r *PgxMarketplaceRepository) GetOwnership(ctx context.Context, assetID, ownerID string) (*domain.Ownership, error) {
	query := `
		SELECT asset_id, owner_id, quantity, created_at, created_by, last_updated_at, last_updated_by
		FROM ownerships
		WHERE asset_id = $1 AND owner_id = $2;
	`
	var m models.Ownership
	err := r.Pool.QueryRow(ctx, query, assetID, ownerID).Scan(
		&m.AssetID, &m.OwnerID, &m.Quantity,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no ownership of asset " + assetID + " by owner " + ownerID)
		}
		return nil, apperrors.NewAppError(500, "failed to find ownership for asset "+assetID, err)
	}
	ownership := mapping.ToDomainOwnership(m)
	return &ownership, nil
}

// GetBalance retrieves the balance row for (ownerID, currency).
func (r *PgxMarketplaceRepository) GetBalance(ctx context.Context, ownerID, currency string) (*domain.Balance, error) {
	query := `
		SELECT owner_id, currency, amount, created_at, created_by, last_updated_at, last_updated_by
		FROM balances
		WHERE owner_id = $1 AND currency = $2;
	`
	var m models.Balance
	err := r.Pool.QueryRow(ctx, query, ownerID, currency).Scan(
		&m.OwnerID, &m.Currency, &m.Amount,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no " + currency + " balance for owner " + ownerID)
		}
		return nil, apperrors.NewAppError(500, "failed to find balance for owner "+ownerID, err)
	}
	balance := mapping.ToDomainBalance(m)
	return &balance, nil
}

// DepositBalance credits (ownerID, currency), creating the row on first deposit.
func (r *PgxMarketplaceRepository) DepositBalance(ctx context.Context, ownerID, currency string, amount decimal.Decimal, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO balances (owner_id, currency, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $4, $5)
		ON CONFLICT (owner_id, currency)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount, last_updated_at = $4, last_updated_by = $5;
	`
	if _, err := tx.Exec(ctx, query, ownerID, currency, amount, now, actorID); err != nil {
		return apperrors.NewAppError(500, "failed to deposit balance for owner "+ownerID, err)
	}

	if err := appendAuditEntryInTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SettleTrade applies the full bid-acceptance settlement in one transaction:
// ownership moves to the buyer, the buyer is debited, the seller is credited,
// the listing goes SOLD and the bid goes ACCEPTED, together with the audit
// entries. Rows are locked in a fixed order (listing, bid, balances by owner
// id, ownership) and every precondition is re-checked under those locks, so a
// concurrent cancel, expiry or competing acceptance makes the whole commit
// roll back with nothing applied.
func (r *PgxMarketplaceRepository) SettleTrade(ctx context.Context, params portsrepo.SettleTradeParams) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Lock the listing and bid rows.
	var snap tradeSnapshot
	err = tx.QueryRow(ctx, `
		SELECT status, expires_at FROM listings WHERE listing_id = $1 FOR UPDATE;
	`, params.ListingID).Scan(&snap.ListingStatus, &snap.ListingExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("listing " + params.ListingID + " not found")
		}
		return apperrors.NewAppError(500, "failed to lock listing "+params.ListingID, err)
	}

	err = tx.QueryRow(ctx, `
		SELECT status FROM bids WHERE bid_id = $1 AND listing_id = $2 FOR UPDATE;
	`, params.BidID, params.ListingID).Scan(&snap.BidStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("bid " + params.BidID + " not found")
		}
		return apperrors.NewAppError(500, "failed to lock bid "+params.BidID, err)
	}

	// Lock both balances in owner-id order so concurrent settlements between
	// the same parties cannot deadlock.
	first, second := params.BuyerID, params.SellerID
	if second < first {
		first, second = second, first
	}
	balances := map[string]decimal.Decimal{}
	for _, ownerID := range []string{first, second} {
		var amount decimal.Decimal
		err = tx.QueryRow(ctx, `
			SELECT amount FROM balances WHERE owner_id = $1 AND currency = $2 FOR UPDATE;
		`, ownerID, params.Currency).Scan(&amount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				amount = decimal.Zero
			} else {
				return apperrors.NewAppError(500, "failed to lock balance for owner "+ownerID, err)
			}
		}
		balances[ownerID] = amount
	}
	snap.BuyerBalance = balances[params.BuyerID]
	snap.SellerBalance = balances[params.SellerID]

	// Lock the seller's ownership row; the seller must still hold the asset.
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM ownerships WHERE asset_id = $1 AND owner_id = $2 FOR UPDATE;
	`, params.AssetID, params.SellerID).Scan(&snap.SellerQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrPrecondition
		}
		return apperrors.NewAppError(500, "failed to lock ownership for asset "+params.AssetID, err)
	}

	plan, err := planTrade(snap, params.Amount, params.Now)
	if err != nil {
		return err
	}

	// Effect 1: ownership moves to the buyer.
	if _, err := tx.Exec(ctx, `
		UPDATE ownerships
		SET owner_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE asset_id = $1 AND owner_id = $2;
	`, params.AssetID, params.SellerID, params.BuyerID, params.Now, params.ActorID); err != nil {
		return apperrors.NewAppError(500, "failed to transfer ownership of asset "+params.AssetID, err)
	}

	// Effect 2: debit the buyer. The plan's balances are absolute and the
	// rows stay locked, so writing them directly is race-free.
	if _, err := tx.Exec(ctx, `
		UPDATE balances
		SET amount = $3, last_updated_at = $4, last_updated_by = $5
		WHERE owner_id = $1 AND currency = $2;
	`, params.BuyerID, params.Currency, plan.BuyerBalance, params.Now, params.ActorID); err != nil {
		return apperrors.NewAppError(500, "failed to debit buyer "+params.BuyerID, err)
	}

	// Effect 3: credit the seller, creating the balance row if needed.
	if _, err := tx.Exec(ctx, `
		INSERT INTO balances (owner_id, currency, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $4, $5)
		ON CONFLICT (owner_id, currency)
		DO UPDATE SET amount = EXCLUDED.amount, last_updated_at = $4, last_updated_by = $5;
	`, params.SellerID, params.Currency, plan.SellerBalance, params.Now, params.ActorID); err != nil {
		return apperrors.NewAppError(500, "failed to credit seller "+params.SellerID, err)
	}

	// Effect 4: listing goes SOLD at the accepted amount.
	if _, err := tx.Exec(ctx, `
		UPDATE listings
		SET status = 'SOLD', sold_price = $2, last_updated_at = $3, last_updated_by = $4
		WHERE listing_id = $1;
	`, params.ListingID, plan.SoldPrice, params.Now, params.ActorID); err != nil {
		return apperrors.NewAppError(500, "failed to mark listing "+params.ListingID+" sold", err)
	}

	// Effect 5: bid goes ACCEPTED.
	if _, err := tx.Exec(ctx, `
		UPDATE bids
		SET status = 'ACCEPTED', last_updated_at = $2, last_updated_by = $3
		WHERE bid_id = $1;
	`, params.BidID, params.Now, params.ActorID); err != nil {
		return apperrors.NewAppError(500, "failed to mark bid "+params.BidID+" accepted", err)
	}

	assetID := params.AssetID
	acceptedEntry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditBidAccepted,
		ActorID:   params.ActorID,
		AssetID:   &assetID,
		Metadata: map[string]any{
			"listingID": params.ListingID,
			"bidID":     params.BidID,
			"buyerID":   params.BuyerID,
			"amount":    params.Amount.String(),
			"currency":  params.Currency,
		},
		CreatedAt: params.Now,
	}
	if err := appendAuditEntryInTx(ctx, tx, acceptedEntry); err != nil {
		return err
	}

	transferEntry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditOwnershipTransferred,
		ActorID:   params.ActorID,
		AssetID:   &assetID,
		Metadata: map[string]any{
			"fromOwnerID": params.SellerID,
			"toOwnerID":   params.BuyerID,
			"listingID":   params.ListingID,
		},
		CreatedAt: params.Now,
	}
	if err := appendAuditEntryInTx(ctx, tx, transferEntry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}
