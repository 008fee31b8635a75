package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// connDriver adapts the connection the process already holds to the migrate
// engine. The stock sqlite driver links its own copy of the database/sql
// driver under the same registered name as the gorm one, and the two panic
// at init, so migrations must run through the shared handle instead.
type connDriver struct {
	db     *sql.DB
	locked atomic.Bool
}

const versionTable = "schema_migrations"

func newConnDriver(db *sql.DB) (*connDriver, error) {
	d := &connDriver{db: db}
	if _, err := d.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool)`, versionTable,
	)); err != nil {
		return nil, fmt.Errorf("create %s: %w", versionTable, err)
	}
	return d, nil
}

// Open is only reachable through URL-based construction, which this driver
// does not support: it is always bound to an existing connection.
func (d *connDriver) Open(string) (database.Driver, error) {
	return nil, errors.New("migration driver is bound to an open connection")
}

// Close is a no-op; the connection belongs to the caller.
func (d *connDriver) Close() error { return nil }

func (d *connDriver) Lock() error {
	if !d.locked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

func (d *connDriver) Unlock() error {
	d.locked.Store(false)
	return nil
}

func (d *connDriver) Run(migration io.Reader) error {
	body, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration: %w", err)
	}
	return tx.Commit()
}

func (d *connDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, versionTable)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if version >= 0 || (version == database.NilVersion && dirty) {
		if _, err := tx.Exec(fmt.Sprintf(
			`INSERT INTO %s (version, dirty) VALUES (?, ?)`, versionTable,
		), version, dirty); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *connDriver) Version() (int, bool, error) {
	var version int
	var dirty bool
	err := d.db.QueryRow(fmt.Sprintf(
		`SELECT version, dirty FROM %s LIMIT 1`, versionTable,
	)).Scan(&version, &dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return database.NilVersion, false, nil
	case err != nil:
		return 0, false, err
	}
	return version, dirty, nil
}

func (d *connDriver) Drop() error {
	rows, err := d.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`,
	)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, table := range tables {
		if _, err := d.db.Exec(fmt.Sprintf(`DROP TABLE %q`, table)); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
