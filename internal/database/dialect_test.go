package database

import (
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("ForUpdateClause", func(t *testing.T) {
		if got := dialect.ForUpdateClause(); got != "" {
			t.Errorf("ForUpdateClause() = %q, want empty for SQLite", got)
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT id FROM accounts WHERE email = ? AND is_active = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("ForUpdateClause", func(t *testing.T) {
		if got := dialect.ForUpdateClause(); got != " FOR UPDATE" {
			t.Errorf("ForUpdateClause() = %q, want \" FOR UPDATE\"", got)
		}
	})

	t.Run("RewriteQuery", func(t *testing.T) {
		query := "SELECT id FROM accounts WHERE email = ? AND is_active = ?"
		want := "SELECT id FROM accounts WHERE email = $1 AND is_active = $2"
		if got := dialect.RewriteQuery(query); got != want {
			t.Errorf("RewriteQuery() = %v, want %v", got, want)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("ForUpdateClause", func(t *testing.T) {
		if got := dialect.ForUpdateClause(); got != " FOR UPDATE" {
			t.Errorf("ForUpdateClause() = %q, want \" FOR UPDATE\"", got)
		}
	})
}
