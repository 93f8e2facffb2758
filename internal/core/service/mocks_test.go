package service

import (
	"context"
	"sync"
	"time"

	"github.com/smallstore/pos/internal/core/domain"
)

type storedItem struct {
	price int
	stock int
}

// mockStore implements CatalogRepository and CheckoutRepository in memory
// with the same all-or-nothing commit semantics as the MySQL adapter.
type mockStore struct {
	mu         sync.Mutex
	items      map[string]*storedItem
	entries    []domain.SaleRecord
	commitErr  error
	resolveErr error
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[string]*storedItem)}
}

func (m *mockStore) addItem(name string, price, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = &storedItem{price: price, stock: stock}
}

func (m *mockStore) stock(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[name]; ok {
		return it.stock
	}
	return -1
}

func (m *mockStore) entryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockStore) ResolveItem(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[name]
	if !ok {
		return nil, nil
	}
	return &domain.ItemSnapshot{
		Name:      name,
		UnitPrice: it.price,
		Stock:     it.stock,
		ReadAt:    time.Now().UTC(),
	}, nil
}

func (m *mockStore) CommitSale(ctx context.Context, commitID string, lines []domain.LineItem) (*domain.CommitResult, error) {
	if m.commitErr != nil {
		return nil, m.commitErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	soldAt := time.Now().UTC().Truncate(time.Second)
	reserved := make(map[string]int)
	receipt := make([]domain.ReceiptLine, 0, len(lines))
	total := 0

	for _, line := range lines {
		it, ok := m.items[line.ItemName]
		if !ok {
			return nil, &domain.UnknownItemError{ItemName: line.ItemName}
		}
		available := it.stock - reserved[line.ItemName]
		if line.Quantity > available {
			return nil, &domain.InsufficientStockError{
				ItemName:  line.ItemName,
				Requested: line.Quantity,
				Available: available,
			}
		}
		reserved[line.ItemName] += line.Quantity

		subtotal := it.price * line.Quantity
		total += subtotal
		receipt = append(receipt, domain.ReceiptLine{
			Seq:       line.Seq,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: it.price,
			Subtotal:  subtotal,
		})
	}

	for _, rl := range receipt {
		m.items[rl.ItemName].stock -= rl.Quantity
		m.entries = append(m.entries, domain.SaleRecord{
			CommitID:  commitID,
			Seq:       rl.Seq,
			ItemName:  rl.ItemName,
			Quantity:  rl.Quantity,
			UnitPrice: rl.UnitPrice,
			SoldAt:    soldAt,
		})
	}

	return &domain.CommitResult{
		CommitID: commitID,
		Total:    total,
		SoldAt:   soldAt,
		Lines:    receipt,
	}, nil
}

func (m *mockStore) FindCommit(ctx context.Context, commitID string) (*domain.CommitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result *domain.CommitResult
	for _, e := range m.entries {
		if e.CommitID != commitID {
			continue
		}
		if result == nil {
			result = &domain.CommitResult{CommitID: commitID, SoldAt: e.SoldAt}
		}
		subtotal := e.UnitPrice * e.Quantity
		result.Total += subtotal
		result.Lines = append(result.Lines, domain.ReceiptLine{
			Seq:       e.Seq,
			ItemName:  e.ItemName,
			Quantity:  e.Quantity,
			UnitPrice: e.UnitPrice,
			Subtotal:  subtotal,
		})
	}
	return result, nil
}

type mockCache struct {
	mu    sync.Mutex
	keys  map[string]bool
	snaps map[string]*domain.ItemSnapshot
}

func newMockCache() *mockCache {
	return &mockCache{
		keys:  make(map[string]bool),
		snaps: make(map[string]*domain.ItemSnapshot),
	}
}

func (m *mockCache) GetSnapshot(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps[name], nil
}

func (m *mockCache) SetSnapshot(ctx context.Context, snap *domain.ItemSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Name] = snap
	return nil
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockCache) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type mockAuthenticator struct {
	users   map[string]string
	authErr error
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (string, bool, error) {
	if m.authErr != nil {
		return "", false, m.authErr
	}
	if pass, ok := m.users[username]; ok && pass == password {
		return username, true, nil
	}
	return "", false, nil
}
