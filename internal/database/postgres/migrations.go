package postgres

import (
	"context"
	"embed"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Schema files are applied in lexical order, so new migrations get the
// next numeric prefix.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. Each pending .sql file runs in
// its own transaction and is recorded in schema_migrations, so a failed
// migration leaves everything before it committed.
func (p *Pool) Migrate(ctx context.Context) error {
	applied, err := p.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, name := range pendingMigrations(applied) {
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := p.applyMigration(ctx, name, string(content)); err != nil {
			return err
		}
		log.Printf("applied migration %s", name)
	}
	return nil
}

func (p *Pool) applyMigration(ctx context.Context, name, statements string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, statements); err != nil {
		tx.Rollback()
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func (p *Pool) appliedVersions(ctx context.Context) (map[string]bool, error) {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

func pendingMigrations(applied map[string]bool) []string {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		// The directory is part of the binary, so this cannot fail at
		// runtime unless the embed directive itself is broken.
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}

	var pending []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") && !applied[e.Name()] {
			pending = append(pending, e.Name())
		}
	}
	sort.Strings(pending)
	return pending
}
