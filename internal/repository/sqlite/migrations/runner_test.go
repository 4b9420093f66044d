package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/msomdec/fraudshield/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (email, display_name, password_hash) VALUES (?, ?, ?)",
		"test@example.com", "Test User", "hash123",
	)
	if err != nil {
		t.Fatalf("insert into users: %v", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO calls (user_email, file_name, file_data, classification, reason) VALUES (?, ?, ?, ?, ?)",
		"test@example.com", "call.wav", []byte{1, 2, 3}, "Fraud", "asked for OTP",
	)
	if err != nil {
		t.Fatalf("insert into calls: %v", err)
	}
}

func TestRunMigrations_RejectsErrorClassification(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO calls (user_email, file_name, file_data, classification, reason) VALUES (?, ?, ?, ?, ?)",
		"test@example.com", "call.wav", []byte{1}, "Error", "boom",
	)
	if err == nil {
		t.Fatal("expected CHECK constraint to reject Error classification")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}

func TestPending(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	pending, err := migrations.Pending(ctx, db)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 || pending[0] != "001_create_users.sql" || pending[1] != "002_create_calls.sql" {
		t.Fatalf("unexpected pending list: %v", pending)
	}

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("Run: %v", err)
	}

	pending, err = migrations.Pending(ctx, db)
	if err != nil {
		t.Fatalf("Pending after run: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %v", pending)
	}
}
