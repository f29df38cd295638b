package factory

import (
	"testing"
	"time"

	"github.com/mcoot/quizclient/internal/api"
	"github.com/mcoot/quizclient/internal/dependencies/mocks"
	"github.com/mcoot/quizclient/internal/services/auth"
	"github.com/mcoot/quizclient/internal/storage/memory"
	"github.com/mcoot/quizclient/internal/testutil"
	"github.com/mcoot/quizclient/internal/testutil/fakebackend"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Backend   *fakebackend.Server
	Retries   *testutil.RetryRecorder
	Memory    *memory.Storage
}

// NewTestApp creates an App wired to an in-process backend, with a mocked
// clock and instant retries
func NewTestApp(t testing.TB) *TestApp {
	t.Helper()

	backend := fakebackend.New("")
	retries := &testutil.RetryRecorder{}
	cfg := api.DefaultConfig()
	cfg.BaseURL = backend.Start(t)
	client := api.NewClient(cfg, testutil.NopLogger(), api.WithRetryTimer(retries.NewTimer))

	store := memory.New()
	// The backend signs tokens against wall time
	mockClock := mocks.NewMockClock(time.Now())

	app := newWithDependencies(store, mockClock, client, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Backend:   backend,
		Retries:   retries,
		Memory:    store,
	}
}
