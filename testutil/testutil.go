// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/tally-booth/auth"
	"github.com/danielhkuo/tally-booth/cliparse"
	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/models"
)

// TestTokenSalt signs voter tokens in tests
const TestTokenSalt = "test-token-salt"

// TestPassword is the password of every voter created by CreateTestVoter
const TestPassword = "password123"

// SetupTestDB creates a fresh SQLite database with the full schema.
// The database lives in the test's temp dir and is closed on cleanup.
func SetupTestDB(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, dialect, err := db.Open(context.Background(), models.DatabaseSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn, dialect
}

// SetupPostgresDB connects to the PostgreSQL database named by
// DATABASE_URL, creates the schema, and empties the voting tables before
// and after the test. The test is skipped unless DATABASE_URL is a
// postgres:// or postgresql:// URL.
func SetupPostgresDB(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
		t.Skip("DATABASE_URL is not a PostgreSQL URL")
	}

	ctx := context.Background()
	conn, dialect, err := db.Open(ctx, models.DatabasePostgres, url)
	if err != nil {
		t.Fatalf("Failed to open postgres: %v", err)
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	reset := func() error {
		_, err := conn.Exec(`TRUNCATE ballot, voter, candidate`)
		return err
	}
	if err := reset(); err != nil {
		conn.Close()
		t.Fatalf("Failed to empty tables: %v", err)
	}
	t.Cleanup(func() {
		if err := reset(); err != nil {
			t.Errorf("Failed to empty tables: %v", err)
		}
		conn.Close()
	})

	return conn, dialect
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3000,
		DatabaseURL:      "test.db",
		DatabaseType:     models.DatabaseSQLite,
		TokenSalt:        TestTokenSalt,
		TokenTTL:         time.Hour,
		SubscriberBuffer: 16,
		TxTimeout:        5 * time.Second,
		TxRetries:        5,
	}
}

// SeedTestCandidates inserts candidates with ids 1..n in the given order
// and returns their ids.
func SeedTestCandidates(t *testing.T, conn *sql.DB, names ...string) []int64 {
	t.Helper()

	candidates := make([]models.Candidate, len(names))
	ids := make([]int64, len(names))
	for i, name := range names {
		ids[i] = int64(i + 1)
		candidates[i] = models.Candidate{ID: ids[i], Name: name}
	}

	if _, err := db.SeedCandidates(context.Background(), conn, candidates); err != nil {
		t.Fatalf("Failed to seed candidates: %v", err)
	}
	return ids
}

// CreateTestVoter registers an unvoted voter and returns its id.
// The password is TestPassword.
func CreateTestVoter(t *testing.T, conn *sql.DB, citizenID string) string {
	t.Helper()

	voterID := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO voter (id, citizen_id, password_hash, has_voted, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, voterID, citizenID, testPasswordHash(t), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterID
}

// CreateTestVoters registers n voters with sequential citizen ids
func CreateTestVoters(t *testing.T, conn *sql.DB, n int) []string {
	t.Helper()

	ids := make([]string, n)
	for i := range ids {
		ids[i] = CreateTestVoter(t, conn, fmt.Sprintf("%05d", i+1))
	}
	return ids
}

var hashTestPassword = sync.OnceValues(func() (string, error) {
	return auth.HashPassword(TestPassword)
})

func testPasswordHash(t *testing.T) string {
	t.Helper()
	hash, err := hashTestPassword()
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return hash
}

// VoterToken returns a valid X-Voter-Token value for voterID
func VoterToken(voterID string) string {
	return auth.GenerateVoterToken(voterID, TestTokenSalt, time.Now())
}

// ExpiredVoterToken returns a correctly signed token issued a day ago
func ExpiredVoterToken(voterID string) string {
	return auth.GenerateVoterToken(voterID, TestTokenSalt, time.Now().Add(-24*time.Hour))
}

// TableCounts is the row state the voting core may change
type TableCounts struct {
	Ballots    int64
	Voted      int64
	TallyTotal int64
}

// CountTables reads TableCounts straight from the database
func CountTables(t *testing.T, conn *sql.DB) TableCounts {
	t.Helper()

	var c TableCounts
	err := conn.QueryRow(`SELECT COUNT(*) FROM ballot`).Scan(&c.Ballots)
	if err == nil {
		err = conn.QueryRow(`SELECT COUNT(*) FROM voter WHERE has_voted = TRUE`).Scan(&c.Voted)
	}
	if err == nil {
		err = conn.QueryRow(`SELECT COALESCE(SUM(tally), 0) FROM candidate`).Scan(&c.TallyTotal)
	}
	if err != nil {
		t.Fatalf("Failed to count tables: %v", err)
	}
	return c
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
