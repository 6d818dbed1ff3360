package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite runs end-to-end syncs against a MockAPI and writes
// output into a per-suite temp directory.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
	API       *MockAPI
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "rickmorty-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// SetupTest gives every test a fresh two page API: 20 then 5 characters.
func (s *IntegrationTestSuite) SetupTest() {
	s.API = NewMockAPI(s.T(), Characters(1, 20), Characters(21, 5))
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	if s.tempDir != "" {
		_ = os.RemoveAll(s.tempDir)
	}
	s.T().Logf("integration suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempPath returns a path inside the suite's temp directory.
func (s *IntegrationTestSuite) TempPath(name string) string {
	return filepath.Join(s.tempDir, name)
}
