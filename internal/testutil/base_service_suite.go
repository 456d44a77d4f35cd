package testutil

import (
	"context"

	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/types"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite provides common functionality for service test
// suites: a context, test config, logger and fresh fakes per test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	config    *config.Configuration
	logger    *logger.Logger
	store     *InMemoryLedgerStore
	publisher *InMemoryPublisher
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryLedgerStore()
	s.publisher = NewInMemoryPublisher()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.store.Clear()
	s.publisher.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetStore() *InMemoryLedgerStore {
	return s.store
}

func (s *BaseServiceTestSuite) GetPublisher() *InMemoryPublisher {
	return s.publisher
}
