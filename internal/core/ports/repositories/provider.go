package repositories

// RepositoryProvider bundles the repository facades the service layer is
// wired from.
type RepositoryProvider struct {
	ActRepo      ActRepositoryWithTx
	CustomerRepo CustomerRepositoryFacade
	SummaryRepo  SummaryRepository
	TillRepo     TillRepositoryFacade
	StockRepo    StockRepositoryFacade
}
