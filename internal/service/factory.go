package service

import (
	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/domain/ledger"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/publisher"
)

// ServiceParams holds common dependencies for services. Clients and
// repositories are process-wide singletons constructed once and injected,
// so tests can substitute fakes without global mutable state.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	LedgerRepo ledger.Repository

	// Queue publisher
	Publisher publisher.RawPublisher
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	ledgerRepo ledger.Repository,
	rawPublisher publisher.RawPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:     logger,
		Config:     config,
		LedgerRepo: ledgerRepo,
		Publisher:  rawPublisher,
	}
}
