package services

import (
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Collaborators first since the account rules depend on them
	container.Till = NewTillService(repos.TillRepo)
	container.Stock = NewStockService(repos.StockRepo)

	container.Account = NewCustomerAccountService(repos.ActRepo, repos.CustomerRepo, container.Till, container.Stock)
	container.Generator = NewBalanceGeneratorService(repos.ActRepo)
	container.Summary = NewBalanceSummaryService(repos.SummaryRepo)

	return container
}
