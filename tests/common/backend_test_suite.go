package common

import (
	"context"
	"io"
	"testing"
	"time"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/sirupsen/logrus"
)

// BackendTestCase represents a backend under test
type BackendTestCase struct {
	Name        string
	Backend     treeboard.Backend
	Description string
}

// CreateTestController creates an initialized controller over backend
// with background sync disabled and notices recorded in memory.
func CreateTestController(t *testing.T, backend treeboard.Backend) (*treeboard.Controller, *treeboard.RecordingNotifier) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	notifier := &treeboard.RecordingNotifier{}
	controller := treeboard.New(backend, &treeboard.Config{
		SyncInterval:   0, // No auto-sync for tests
		RequestTimeout: 30 * time.Second,
		Logger:         logger,
		Notifier:       notifier,
	})

	if err := controller.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize controller: %v", err)
	}

	return controller, notifier
}

// CleanupController properly closes the controller
func CleanupController(t *testing.T, controller *treeboard.Controller) {
	t.Helper()

	if err := controller.Close(); err != nil {
		t.Errorf("Failed to close controller: %v", err)
	}
}

// ClearAllRows deletes every loaded row through the controller
func ClearAllRows(t *testing.T, controller *treeboard.Controller) {
	t.Helper()

	ctx := context.Background()
	if err := controller.Refresh(ctx); err != nil {
		t.Fatalf("Failed to refresh before clearing: %v", err)
	}
	for _, row := range controller.State().Rows {
		if err := controller.Delete(ctx, row.Key); err != nil {
			t.Fatalf("Failed to delete %q: %v", row.Key, err)
		}
	}
}
