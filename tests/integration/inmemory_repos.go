package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.CustomerID == w.CustomerID && existing.CurrencyCode == w.CurrencyCode {
			return ports.ErrWalletExists
		}
	}
	r.wallets[w.ID] = w
	return nil
}

// Reads return copies, the way a row scan would. Callers mutating the
// returned struct never touch the stored row.
func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByCustomer(ctx context.Context, customerID, currencyCode string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.CustomerID == customerID && w.CurrencyCode == currencyCode {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID, currencyCode string) (*domain.Wallet, error) {
	return r.GetByCustomer(ctx, customerID, currencyCode)
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance decimal.Decimal) error {
	r.mu.RLock()
	_, ok := r.wallets[walletID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.wallets[walletID]; ok {
			w.Balance = newBalance
		}
	})
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions []*domain.WalletTransaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transactions = append(r.transactions, t)
	})
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WalletTransaction
	// Insertion order is commit order; newest entries sit at the end.
	for i := len(r.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if r.transactions[i].WalletID == walletID {
			out = append(out, *r.transactions[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// allByWallet returns every entry for reconciliation checks.
func (r *inMemoryTransactionRepo) allByWallet(walletID uuid.UUID) []domain.WalletTransaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WalletTransaction
	for _, t := range r.transactions {
		if t.WalletID == walletID {
			out = append(out, *t)
		}
	}
	return out
}

// --- In-Memory Outbox Repo ---

type inMemoryOutboxRepo struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

func newInMemoryOutboxRepo() *inMemoryOutboxRepo {
	return &inMemoryOutboxRepo{}
}

func (r *inMemoryOutboxRepo) Create(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	stageWrite(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
	})
	return nil
}

func (r *inMemoryOutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.OutboxEvent
	for _, e := range r.events {
		if !e.Published {
			out = append(out, *e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *inMemoryOutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Published = true
			return nil
		}
	}
	return fmt.Errorf("outbox event not found")
}

// --- Failure Injection ---

// flakyTransactionRepo fails the next ledger append on demand so mid-mutation
// rollback can be exercised.
type flakyTransactionRepo struct {
	*inMemoryTransactionRepo
	failNext bool
}

func (r *flakyTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	if r.failNext {
		r.failNext = false
		return fmt.Errorf("ledger insert failed")
	}
	return r.inMemoryTransactionRepo.Create(ctx, tx, t)
}

// flakyOutboxRepo fails the next event append on demand.
type flakyOutboxRepo struct {
	*inMemoryOutboxRepo
	failNext bool
}

func (r *flakyOutboxRepo) Create(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	if r.failNext {
		r.failNext = false
		return fmt.Errorf("outbox insert failed")
	}
	return r.inMemoryOutboxRepo.Create(ctx, tx, event)
}

// --- Capture Publisher ---

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.OutboxEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() []domain.OutboxEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxEvent(nil), p.events...)
}

// --- Always-Miss Balance Cache ---

type missCache struct{}

func (missCache) Get(ctx context.Context, customerID, currencyCode string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}
func (missCache) Set(ctx context.Context, customerID, currencyCode string, balance decimal.Decimal) error {
	return nil
}
func (missCache) Invalidate(ctx context.Context, customerID, currencyCode string) error { return nil }

// --- In-Memory Transactor ---

// inMemoryTransactor serializes mutations with a single mutex, standing in
// for the row lock a SELECT FOR UPDATE would take.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockTx{transactor: t}, nil
}

// lockTx holds the transactor lock and the writes staged during the
// transaction. Commit applies the staged writes before releasing the lock,
// Rollback discards them, so partial mutations are never observable.
type lockTx struct {
	noopTx
	transactor *inMemoryTransactor
	staged     []func()
	release    sync.Once
}

func (t *lockTx) Commit(ctx context.Context) error {
	t.release.Do(func() {
		for _, apply := range t.staged {
			apply()
		}
		t.staged = nil
		t.transactor.mu.Unlock()
	})
	return nil
}

func (t *lockTx) Rollback(ctx context.Context) error {
	t.release.Do(func() {
		t.staged = nil
		t.transactor.mu.Unlock()
	})
	return nil
}

// stageWrite defers a repo write to Commit when running inside a lockTx.
// Writes outside a transaction apply immediately.
func stageWrite(tx pgx.Tx, apply func()) {
	if lt, ok := tx.(*lockTx); ok {
		lt.staged = append(lt.staged, apply)
		return
	}
	apply()
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
