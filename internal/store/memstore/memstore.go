// Package memstore keeps the ledger in process memory. A per-user lock is held
// until the unit of work ends and staged writes become visible only on commit.
package memstore

import (
	"context"
	"math"
	"sync"
	"time"

	"ppob_wallet/internal/domain"

	"github.com/google/uuid"
)

// Store is an in-memory ledger store
type Store struct {
	mu       sync.RWMutex
	balances map[string]domain.Balance
	log      []domain.Transaction
	invoices map[string]int // invoice number -> index into log
	services map[string]domain.Service

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New returns an empty store with the given catalog
func New(services ...domain.Service) *Store {
	s := &Store{
		balances: make(map[string]domain.Balance),
		invoices: make(map[string]int),
		services: make(map[string]domain.Service),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, svc := range services {
		s.services[svc.Code] = svc
	}
	return s
}

// WithinTx runs fn against a unit whose writes are applied only when fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(domain.BalanceStore, domain.TransactionLog) error) error {
	u := &unit{
		s:        s,
		held:     make(map[string]*sync.Mutex),
		balances: make(map[string]domain.Balance),
	}
	defer u.release() // Row locks end with the unit

	if err := fn(u, u); err != nil {
		return err // Staged writes are dropped
	}
	if err := ctx.Err(); err != nil {
		return domain.ErrStorageFailure.Wrap(err) // Cancelled before commit
	}
	return u.commit()
}

// Balances returns a balance store where every mutation is its own unit of work
func (s *Store) Balances() domain.BalanceStore {
	return autoCommit{s: s}
}

// Transactions returns the log outside any unit of work
func (s *Store) Transactions() domain.TransactionLog {
	return autoCommit{s: s}
}

// Catalog returns the read-only service catalog
func (s *Store) Catalog() domain.ServiceCatalog {
	return catalog{s: s}
}

func (s *Store) rowLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[userID] = m
	}
	return m
}

// unit is one in-flight unit of work
type unit struct {
	s        *Store
	held     map[string]*sync.Mutex
	balances map[string]domain.Balance
	log      []domain.Transaction
}

func (u *unit) lock(userID string) {
	if _, ok := u.held[userID]; ok {
		return // Already held by this unit
	}
	m := u.s.rowLock(userID)
	m.Lock() // Blocks other units on the same user
	u.held[userID] = m
}

func (u *unit) release() {
	for id, m := range u.held {
		m.Unlock()
		delete(u.held, id)
	}
}

// commit re-checks invoice uniqueness under the write lock, two units may
// have staged the same number concurrently
func (u *unit) commit() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, rec := range u.log {
		if _, taken := u.s.invoices[rec.InvoiceNumber]; taken {
			return domain.ErrDuplicateInvoice // Nothing applied
		}
	}
	for id, bal := range u.balances {
		u.s.balances[id] = bal
	}
	for _, rec := range u.log {
		u.s.invoices[rec.InvoiceNumber] = len(u.s.log)
		u.s.log = append(u.s.log, rec)
	}
	return nil
}

// current reads through staged writes to committed state
func (u *unit) current(userID string) (domain.Balance, bool) {
	if bal, ok := u.balances[userID]; ok {
		return bal, true
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	bal, ok := u.s.balances[userID]
	return bal, ok
}

func (u *unit) Get(_ context.Context, userID string) (*domain.Balance, error) {
	bal, ok := u.current(userID)
	if !ok {
		return nil, domain.ErrBalanceNotFound
	}
	return &bal, nil
}

func (u *unit) CreateIfAbsent(_ context.Context, userID string) (*domain.Balance, error) {
	u.lock(userID)
	if bal, ok := u.current(userID); ok {
		return &bal, nil // Existing row wins
	}
	now := time.Now()
	bal := domain.Balance{UserID: userID, CreatedAt: now, UpdatedAt: now}
	u.balances[userID] = bal
	return &bal, nil
}

func (u *unit) Add(_ context.Context, userID string, amount int64) (*domain.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	u.lock(userID)

	now := time.Now()
	bal, ok := u.current(userID)
	if !ok {
		bal = domain.Balance{UserID: userID, CreatedAt: now} // Seeded by this credit
	}
	if bal.Amount > math.MaxInt64-amount {
		return nil, domain.ErrInvalidAmount // Would overflow int64
	}
	bal.Amount += amount
	bal.UpdatedAt = now
	u.balances[userID] = bal
	return &bal, nil
}

func (u *unit) Deduct(_ context.Context, userID string, amount int64) (*domain.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	u.lock(userID)

	bal, ok := u.current(userID)
	if !ok || bal.Amount < amount {
		return nil, domain.ErrInsufficientFunds // Checked under the user lock
	}
	bal.Amount -= amount
	bal.UpdatedAt = time.Now()
	u.balances[userID] = bal
	return &bal, nil
}

func (u *unit) Append(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if u.invoiceTaken(t.InvoiceNumber) {
		return nil, domain.ErrDuplicateInvoice
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	u.log = append(u.log, *t) // Visible to others after commit
	return t, nil
}

func (u *unit) invoiceTaken(invoice string) bool {
	for _, rec := range u.log {
		if rec.InvoiceNumber == invoice {
			return true
		}
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	_, ok := u.s.invoices[invoice]
	return ok
}

func (u *unit) FindByInvoice(_ context.Context, invoice string) (*domain.Transaction, error) {
	for _, rec := range u.log {
		if rec.InvoiceNumber == invoice {
			found := rec
			return &found, nil
		}
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	idx, ok := u.s.invoices[invoice]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	found := u.s.log[idx]
	return &found, nil
}

func (u *unit) History(_ context.Context, userID string, limit *int, offset int) ([]domain.Transaction, int64, error) {
	if offset < 0 {
		offset = 0
	}

	// newest first: staged records, then committed ones in reverse append order
	var all []domain.Transaction
	for i := len(u.log) - 1; i >= 0; i-- {
		if u.log[i].UserID == userID {
			all = append(all, u.log[i])
		}
	}
	u.s.mu.RLock()
	for i := len(u.s.log) - 1; i >= 0; i-- {
		if u.s.log[i].UserID == userID {
			all = append(all, u.s.log[i])
		}
	}
	u.s.mu.RUnlock()

	total := int64(len(all))
	if offset >= len(all) {
		return []domain.Transaction{}, total, nil
	}
	page := all[offset:]
	if limit != nil && *limit > 0 && *limit < len(page) {
		page = page[:*limit]
	}
	return append([]domain.Transaction(nil), page...), total, nil
}

// autoCommit runs each call as its own unit of work
type autoCommit struct {
	s *Store
}

func (a autoCommit) Get(ctx context.Context, userID string) (bal *domain.Balance, err error) {
	err = a.s.WithinTx(ctx, func(b domain.BalanceStore, _ domain.TransactionLog) error {
		bal, err = b.Get(ctx, userID)
		return err
	})
	return bal, err
}

func (a autoCommit) CreateIfAbsent(ctx context.Context, userID string) (bal *domain.Balance, err error) {
	err = a.s.WithinTx(ctx, func(b domain.BalanceStore, _ domain.TransactionLog) error {
		bal, err = b.CreateIfAbsent(ctx, userID)
		return err
	})
	return bal, err
}

func (a autoCommit) Add(ctx context.Context, userID string, amount int64) (bal *domain.Balance, err error) {
	err = a.s.WithinTx(ctx, func(b domain.BalanceStore, _ domain.TransactionLog) error {
		bal, err = b.Add(ctx, userID, amount)
		return err
	})
	return bal, err
}

func (a autoCommit) Deduct(ctx context.Context, userID string, amount int64) (bal *domain.Balance, err error) {
	err = a.s.WithinTx(ctx, func(b domain.BalanceStore, _ domain.TransactionLog) error {
		bal, err = b.Deduct(ctx, userID, amount)
		return err
	})
	return bal, err
}

func (a autoCommit) Append(ctx context.Context, t *domain.Transaction) (rec *domain.Transaction, err error) {
	err = a.s.WithinTx(ctx, func(_ domain.BalanceStore, l domain.TransactionLog) error {
		rec, err = l.Append(ctx, t)
		return err
	})
	return rec, err
}

func (a autoCommit) FindByInvoice(ctx context.Context, invoice string) (rec *domain.Transaction, err error) {
	err = a.s.WithinTx(ctx, func(_ domain.BalanceStore, l domain.TransactionLog) error {
		rec, err = l.FindByInvoice(ctx, invoice)
		return err
	})
	return rec, err
}

func (a autoCommit) History(ctx context.Context, userID string, limit *int, offset int) (records []domain.Transaction, total int64, err error) {
	err = a.s.WithinTx(ctx, func(_ domain.BalanceStore, l domain.TransactionLog) error {
		records, total, err = l.History(ctx, userID, limit, offset)
		return err
	})
	return records, total, err
}

type catalog struct {
	s *Store
}

func (c catalog) FindByCode(_ context.Context, code string) (*domain.Service, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	svc, ok := c.s.services[code]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	return &svc, nil
}
