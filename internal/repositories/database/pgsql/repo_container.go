package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx-backed repository onto one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		Custody:     newPgxCustodyRepository(pool),
		Operation:   newPgxOperationRepository(pool),
		Marketplace: newPgxMarketplaceRepository(pool),
		Audit:       newPgxAuditRepository(pool),
		User:        newPgxUserRepository(pool),
	}
}
