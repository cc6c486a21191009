package postgres

import (
	"os"
	"testing"

	"github.com/julianstephens/mydiary/internal/storage"
	"github.com/julianstephens/mydiary/internal/storage/storagetest"
)

func openIntegrationStore(t *testing.T) storage.Provider {
	t.Helper()

	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration tests")
	}

	s := New(connStr)
	if err := s.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	for _, table := range []string{"todo_items", "diary_entries", "settings"} {
		if _, err := s.GetDB().Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clean %s: %v", table, err)
		}
	}
	if err := s.Init(); err != nil {
		t.Fatalf("failed to re-init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresProviderContract(t *testing.T) {
	storagetest.Run(t, openIntegrationStore)
}

func TestPostgresMigrationStatus(t *testing.T) {
	s := openIntegrationStore(t).(*Store)

	status, err := s.MigrationStatus()
	if err != nil {
		t.Fatalf("failed to read migration status: %v", err)
	}
	if status.Current != status.Latest || len(status.Pending) != 0 {
		t.Errorf("expected fully migrated schema, got %+v", status)
	}
}
