package postgres

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/utafrali/catalog/pkg/database"
)

// newMockPool returns a mock pool whose expectations are checked when the
// test ends.
func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet database expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}
