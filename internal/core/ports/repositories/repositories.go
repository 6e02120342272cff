package repositories

// RepositoryProvider holds instances of all repository facades. It is built
// once by the persistence adapter and handed to the service layer.
type RepositoryProvider struct {
	Custody     CustodyRecordRepositoryFacade
	Operation   OperationRepositoryFacade
	Marketplace MarketplaceRepositoryFacade
	Audit       AuditRepositoryFacade
	User        UserRepositoryFacade
}
