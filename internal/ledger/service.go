// Package ledger orchestrates balance mutations and the transaction log as
// single units of work.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ppob_wallet/internal/domain"

	"github.com/sirupsen/logrus"
)

const (
	opGetBalance = "get_balance"
	opTopUp      = "topup"
	opPayment    = "payment"
	opHistory    = "history"

	topUpDescription = "Top Up balance"
	defaultCacheTTL  = 5 * time.Minute
)

// History is one page of a user's transaction history
type History struct {
	Offset  int                  `json:"offset"`
	Limit   int                  `json:"limit"` // requested limit, or the total when unlimited
	Total   int64                `json:"total"`
	Records []domain.Transaction `json:"records"`
}

// Service runs the ledger operations
type Service struct {
	store    Store
	invoices domain.InvoiceGenerator
	cache    Cache
	cacheTTL time.Duration
	events   Publisher
	metrics  Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCache enables the read cache for balances and history pages
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithPublisher publishes an event for each committed transaction
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRecorder records operation metrics
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithLogger sets the logger, logrus.StandardLogger() otherwise
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithInvoiceGenerator overrides the invoice numbering scheme
func WithInvoiceGenerator(g domain.InvoiceGenerator) Option {
	return func(s *Service) { s.invoices = g }
}

// WithClock overrides the clock used for invoice numbers
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the ledger on top of store
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		invoices: domain.UniqueInvoice{},
		cache:    nopCache{},
		cacheTTL: defaultCacheTTL,
		events:   nopPublisher{},
		metrics:  nopRecorder{},
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance returns the user's balance, creating a zero balance on first access
func (s *Service) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	start := time.Now()
	fields := logrus.Fields{"op": opGetBalance, "user_id": userID}
	if userID == "" {
		return nil, s.fail(fields, start, domain.ErrUnauthorized)
	}

	gen, cacheable := s.cacheVersion(ctx, userID) // Generation read before the store
	key := balanceKey(userID, gen)
	var cached domain.Balance
	if cacheable && s.cacheGet(ctx, key, &cached) {
		s.metrics.ObserveOperation(opGetBalance, "ok", time.Since(start))
		return &cached, nil // Served from cache
	}

	bal, err := s.store.Balances().Get(ctx, userID) // Plain read, no lock
	if errors.Is(err, domain.ErrBalanceNotFound) {
		bal, err = s.store.Balances().CreateIfAbsent(ctx, userID) // Lazy zero balance
	}
	if err != nil {
		return nil, s.fail(fields, start, err)
	}

	if cacheable {
		s.cacheSet(ctx, key, bal) // A commit since the generation read makes this entry unreachable
	}
	s.metrics.ObserveOperation(opGetBalance, "ok", time.Since(start))
	return bal, nil
}

// TopUp credits amount and records a TOPUP transaction in one unit of work
func (s *Service) TopUp(ctx context.Context, userID string, amount int64) (*domain.Balance, error) {
	start := time.Now()
	fields := logrus.Fields{"op": opTopUp, "user_id": userID, "amount": amount}
	if userID == "" {
		return nil, s.fail(fields, start, domain.ErrUnauthorized)
	}
	if amount <= 0 {
		return nil, s.fail(fields, start, domain.ErrInvalidAmount)
	}

	var (
		bal *domain.Balance
		rec *domain.Transaction
	)
	err := s.store.WithinTx(ctx, func(balances domain.BalanceStore, log domain.TransactionLog) error {
		var err error
		if bal, err = balances.Add(ctx, userID, amount); err != nil { // Locks or seeds the row
			return err
		}
		rec, err = log.Append(ctx, &domain.Transaction{ // Same transaction as the credit
			InvoiceNumber: s.invoices.Next(s.now()),
			UserID:        userID,
			Type:          domain.TransactionTopUp,
			Amount:        amount,
			Description:   topUpDescription,
		})
		return err // Any error rolls back both writes
	})
	if err != nil {
		return nil, s.fail(fields, start, err)
	}

	s.committed(ctx, opTopUp, start, rec, bal)
	return bal, nil
}

// Pay charges the tariff of serviceCode and records a PAYMENT transaction in one unit of work
func (s *Service) Pay(ctx context.Context, userID, serviceCode string) (*domain.Transaction, error) {
	start := time.Now()
	fields := logrus.Fields{"op": opPayment, "user_id": userID, "service_code": serviceCode}
	if userID == "" {
		return nil, s.fail(fields, start, domain.ErrUnauthorized)
	}
	if serviceCode == "" {
		return nil, s.fail(fields, start, domain.ErrInvalidRequest.WithMessage("Service code diperlukan"))
	}

	svc, err := s.store.Catalog().FindByCode(ctx, serviceCode) // Tariff lookup
	if err != nil {
		return nil, s.fail(fields, start, err)
	}
	fields["amount"] = svc.Tariff

	// early rejection on a plain read, Deduct checks again under the row lock
	current, err := s.store.Balances().Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrBalanceNotFound):
		return nil, s.fail(fields, start, domain.ErrInsufficientFunds)
	case err != nil:
		return nil, s.fail(fields, start, err)
	case current.Amount < svc.Tariff:
		return nil, s.fail(fields, start, domain.ErrInsufficientFunds)
	}

	var (
		bal *domain.Balance
		rec *domain.Transaction
	)
	err = s.store.WithinTx(ctx, func(balances domain.BalanceStore, log domain.TransactionLog) error {
		var err error
		if bal, err = balances.Deduct(ctx, userID, svc.Tariff); err != nil { // Rechecks funds under the lock
			return err
		}
		code, name := svc.Code, svc.Name
		rec, err = log.Append(ctx, &domain.Transaction{
			InvoiceNumber: s.invoices.Next(s.now()),
			UserID:        userID,
			ServiceCode:   &code,
			ServiceName:   &name,
			Type:          domain.TransactionPayment,
			Amount:        svc.Tariff,
			Description:   svc.Name,
		})
		return err
	})
	if err != nil {
		return nil, s.fail(fields, start, err)
	}

	s.committed(ctx, opPayment, start, rec, bal)
	return rec, nil
}

// History returns a page of the user's transactions, newest first. A nil or
// non-positive limit returns everything from offset on.
func (s *Service) History(ctx context.Context, userID string, limit *int, offset int) (*History, error) {
	start := time.Now()
	limit, offset = NormalizePage(limit, offset)
	fields := logrus.Fields{"op": opHistory, "user_id": userID, "offset": offset}
	if userID == "" {
		return nil, s.fail(fields, start, domain.ErrUnauthorized)
	}

	gen, cacheable := s.cacheVersion(ctx, userID)
	key := historyKey(userID, gen, limit, offset)
	var cached History
	if cacheable && s.cacheGet(ctx, key, &cached) {
		s.metrics.ObserveOperation(opHistory, "ok", time.Since(start))
		return &cached, nil
	}

	records, total, err := s.store.Transactions().History(ctx, userID, limit, offset)
	if err != nil {
		return nil, s.fail(fields, start, err)
	}

	page := &History{Offset: offset, Total: total, Records: records}
	if limit != nil {
		page.Limit = *limit
	} else {
		page.Limit = int(total) // Unlimited pages report the total
	}

	if cacheable {
		s.cacheSet(ctx, key, page)
	}
	s.metrics.ObserveOperation(opHistory, "ok", time.Since(start))
	return page, nil
}

// NormalizePage clamps offset to zero and drops a non-positive limit
func NormalizePage(limit *int, offset int) (*int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit != nil && *limit <= 0 {
		limit = nil
	}
	return limit, offset
}

// committed runs the post-commit side effects. None of them can undo the commit,
// failures are only logged.
func (s *Service) committed(ctx context.Context, op string, start time.Time, rec *domain.Transaction, bal *domain.Balance) {
	entry := s.log.WithFields(logrus.Fields{
		"op":               op,
		"user_id":          rec.UserID,
		"invoice_number":   rec.InvoiceNumber,
		"transaction_type": rec.Type,
		"amount":           rec.Amount,
		"balance":          bal.Amount,
	})

	if _, err := s.cache.Bump(ctx, versionKey(rec.UserID)); err != nil { // Retires cached balance and history
		entry.WithError(err).Warn("Failed to invalidate ledger cache")
	}

	evt := domain.TransactionEvent{
		TransactionID: rec.ID,
		InvoiceNumber: rec.InvoiceNumber,
		UserID:        rec.UserID,
		Type:          rec.Type,
		ServiceCode:   rec.ServiceCode,
		Amount:        rec.Amount,
		Balance:       bal.Amount,
		CreatedAt:     rec.CreatedAt,
	}
	if err := s.events.PublishTransaction(ctx, evt); err != nil {
		entry.WithError(err).Warn("Failed to publish transaction event")
	}

	s.metrics.ObserveOperation(op, "ok", time.Since(start))
	s.metrics.AddVolume(rec.Type, rec.Amount)
	entry.Info("Ledger transaction committed")
}

// fail logs and counts a failed operation and returns the tagged error
func (s *Service) fail(fields logrus.Fields, start time.Time, err error) error {
	tagged := domain.AsError(err)
	op, _ := fields["op"].(string)

	entry := s.log.WithFields(fields).WithField("error_kind", tagged.Kind)
	if tagged.Kind == domain.KindStorageFailure {
		entry.WithError(err).Error("Ledger operation failed")
	} else {
		entry.Warn(tagged.Message)
	}
	s.metrics.ObserveOperation(op, string(tagged.Kind), time.Since(start))
	return tagged
}

// cacheVersion reads the user's cache generation. When it cannot be read the
// cache is skipped for this call.
func (s *Service) cacheVersion(ctx context.Context, userID string) (int64, bool) {
	gen, err := s.cache.Version(ctx, versionKey(userID))
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Cache version read failed")
		return 0, false
	}
	return gen, true
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func versionKey(userID string) string {
	return fmt.Sprintf("ledger:user:%s:version", userID)
}

func balanceKey(userID string, gen int64) string {
	return fmt.Sprintf("balance:user:%s:v%d", userID, gen)
}

func historyKey(userID string, gen int64, limit *int, offset int) string {
	l := "all"
	if limit != nil {
		l = fmt.Sprint(*limit)
	}
	return fmt.Sprintf("txhistory:user:%s:v%d:limit:%s:offset:%d", userID, gen, l, offset)
}
