package helpers

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sovushik/SparkyFitness/middleware"
	"github.com/sovushik/SparkyFitness/migrations"
)

// SetupTestDB connects to the database named by TEST_DATABASE_URL and
// brings its schema up to date. Database-backed tests are skipped when
// the variable is unset, so the rest of the suite runs without Postgres.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err := migrations.Up(dbURL); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the integration tests. Deleting
// the users cascades through diary, measurement, water and chat tables.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// WithUser stamps the request context the way AuthMiddleware would after
// verifying a session token.
func WithUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}
