package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/erazemk/zaloga/internal/model"
)

// SQLite is a Store backed by the items table of a SQLite database.
type SQLite struct {
	// mu serializes operations so existence checks and writes are atomic.
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite returns a store using db. The schema must already exist.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

const itemColumns = `item_code, name, image, description, quantity,
	procurement_date, manufacturing_date, expiry_date`

// Create inserts a new item.
func (s *SQLite) Create(ctx context.Context, item model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ItemCode == "" {
		code, err := newItemCode(func(c string) (bool, error) {
			return s.exists(ctx, c)
		})
		if err != nil {
			return model.Item{}, err
		}
		item.ItemCode = code
	}

	taken, err := s.exists(ctx, item.ItemCode)
	if err != nil {
		return model.Item{}, err
	}
	if taken {
		return model.Item{}, ErrDuplicateItemCode
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ItemCode, item.Name, nullString(item.Image), nullString(item.Description), item.Quantity,
		item.ProcurementDate.String(), nullDate(item.ManufacturingDate), nullDate(item.ExpiryDate),
	)
	if err != nil {
		return model.Item{}, fmt.Errorf("creating item: %w", err)
	}

	return item, nil
}

// Get returns an item by code.
func (s *SQLite) Get(ctx context.Context, code string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE item_code = ?`, code,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrItemNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// Update replaces an item's columns in place, so its rowid and therefore its
// search position are kept.
func (s *SQLite) Update(ctx context.Context, code string, item model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.exists(ctx, code)
	if err != nil {
		return model.Item{}, err
	}
	if !found {
		return model.Item{}, ErrItemNotFound
	}
	if item.ItemCode != code {
		return model.Item{}, ErrItemCodeMismatch
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, image = ?, description = ?, quantity = ?,
		        procurement_date = ?, manufacturing_date = ?, expiry_date = ?
		 WHERE item_code = ?`,
		item.Name, nullString(item.Image), nullString(item.Description), item.Quantity,
		item.ProcurementDate.String(), nullDate(item.ManufacturingDate), nullDate(item.ExpiryDate),
		code,
	)
	if err != nil {
		return model.Item{}, fmt.Errorf("updating item: %w", err)
	}
	return item, nil
}

// Delete removes an item.
func (s *SQLite) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE item_code = ?`, code)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Search reads every row in rowid order and filters in Go, so name matching
// folds case exactly as the in-memory store does.
func (s *SQLite) Search(ctx context.Context, filter model.SearchFilter) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if filter.Matches(item) {
			items = append(items, item)
		}
	}
	return items, rows.Err()
}

func (s *SQLite) exists(ctx context.Context, code string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE item_code = ?`, code,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking item code: %w", err)
	}
	return count > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (model.Item, error) {
	var item model.Item
	var image, description, manufacturing, expiry sql.NullString
	var procurement string

	err := sc.Scan(&item.ItemCode, &item.Name, &image, &description, &item.Quantity,
		&procurement, &manufacturing, &expiry)
	if err != nil {
		return model.Item{}, err
	}

	if item.ProcurementDate, err = model.ParseDate(procurement); err != nil {
		return model.Item{}, err
	}
	if item.ManufacturingDate, err = parseNullDate(manufacturing); err != nil {
		return model.Item{}, err
	}
	if item.ExpiryDate, err = parseNullDate(expiry); err != nil {
		return model.Item{}, err
	}
	if image.Valid {
		item.Image = &image.String
	}
	if description.Valid {
		item.Description = &description.String
	}
	return item, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDate(d *model.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*model.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := model.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
