package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smallstore/pos/internal/core/domain"
)

// MySQLAdapter implements CatalogRepository, CheckoutRepository and
// Authenticator against the relational store.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}

func (m *MySQLAdapter) ResolveItem(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	var snap domain.ItemSnapshot
	err := m.db.QueryRowContext(ctx, `
		SELECT name, unit_price, stock FROM items WHERE name = ?`, name,
	).Scan(&snap.Name, &snap.UnitPrice, &snap.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query item", err)
	}

	snap.ReadAt = time.Now().UTC()
	return &snap, nil
}

// CommitSale runs the whole cart as one transaction. Every line's row is
// locked and re-read first; only when all lines validate against that one
// snapshot are the decrements and sale records applied. Two lines for the
// same item are validated against their summed quantity.
func (m *MySQLAdapter) CommitSale(ctx context.Context, commitID string, lines []domain.LineItem) (*domain.CommitResult, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	soldAt := time.Now().UTC().Truncate(time.Second)

	reserved := make(map[string]int, len(lines))
	receipt := make([]domain.ReceiptLine, 0, len(lines))
	total := 0

	for _, line := range lines {
		var unitPrice, stock int
		err := tx.QueryRowContext(ctx, `
			SELECT unit_price, stock FROM items WHERE name = ? FOR UPDATE`,
			line.ItemName,
		).Scan(&unitPrice, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.UnknownItemError{ItemName: line.ItemName}
		}
		if err != nil {
			return nil, storeErr("lock item row", err)
		}

		available := stock - reserved[line.ItemName]
		if line.Quantity > available {
			return nil, &domain.InsufficientStockError{
				ItemName:  line.ItemName,
				Requested: line.Quantity,
				Available: available,
			}
		}
		reserved[line.ItemName] += line.Quantity

		subtotal := unitPrice * line.Quantity
		total += subtotal
		receipt = append(receipt, domain.ReceiptLine{
			Seq:       line.Seq,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
		})
	}

	for _, rl := range receipt {
		// Rows are still locked; the stock >= ? guard keeps the decrement
		// from ever driving stock negative.
		result, err := tx.ExecContext(ctx, `
			UPDATE items
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE name = ? AND stock >= ?`,
			rl.Quantity, rl.ItemName, rl.Quantity,
		)
		if err != nil {
			return nil, storeErr("decrement stock", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil, fmt.Errorf("decrement %q: %w", rl.ItemName, domain.ErrAborted)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_entries (id, commit_id, seq, item_name, quantity, unit_price, sold_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), commitID, rl.Seq, rl.ItemName, rl.Quantity, rl.UnitPrice, soldAt,
		)
		if err != nil {
			return nil, storeErr("insert sale entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		// The server may or may not have applied the transaction. Callers
		// must reconcile via FindCommit, never retry blindly.
		return nil, fmt.Errorf("commit tx: %w", errors.Join(domain.ErrUnknownOutcome, err))
	}

	return &domain.CommitResult{
		CommitID: commitID,
		Total:    total,
		SoldAt:   soldAt,
		Lines:    receipt,
	}, nil
}

func (m *MySQLAdapter) FindCommit(ctx context.Context, commitID string) (*domain.CommitResult, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT seq, item_name, quantity, unit_price, sold_at
		FROM sale_entries WHERE commit_id = ? ORDER BY seq`, commitID)
	if err != nil {
		return nil, storeErr("query sale entries", err)
	}
	defer rows.Close()

	var result *domain.CommitResult
	for rows.Next() {
		var rl domain.ReceiptLine
		var soldAt time.Time
		if err := rows.Scan(&rl.Seq, &rl.ItemName, &rl.Quantity, &rl.UnitPrice, &soldAt); err != nil {
			return nil, storeErr("scan sale entry", err)
		}
		rl.Subtotal = rl.UnitPrice * rl.Quantity

		if result == nil {
			result = &domain.CommitResult{CommitID: commitID, SoldAt: soldAt}
		}
		result.Total += rl.Subtotal
		result.Lines = append(result.Lines, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate sale entries", err)
	}

	return result, nil
}

func (m *MySQLAdapter) Authenticate(ctx context.Context, username, password string) (string, bool, error) {
	var name string
	err := m.db.QueryRowContext(ctx, `
		SELECT s.name FROM staff s
		JOIN passwords p ON s.password_key = p.password_key
		WHERE s.name = ? AND p.password_string = ?`,
		username, password,
	).Scan(&name)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("query staff", err)
	}

	return name, true, nil
}
