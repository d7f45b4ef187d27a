// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
	ledgerdom "sodistore/internal/domain/ledger"
	orderdom "sodistore/internal/domain/order"
	promodom "sodistore/internal/domain/promo"
	addrdom "sodistore/internal/domain/shippingaddress"
)

// ----------------------------
// cart
// ----------------------------

type memCarts struct {
	mu        sync.Mutex
	byAccount map[string]*cartdom.Cart
	failGet   error
	failSave  error
}

func newMemCarts() *memCarts {
	return &memCarts{byAccount: map[string]*cartdom.Cart{}}
}

// cloneCart mirrors the real adapter, which deserializes a fresh value
// per read: callers must never share memory with the stored cart.
func cloneCart(c *cartdom.Cart) *cartdom.Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Lines = append([]cartdom.Line(nil), c.Lines...)
	if c.Promo != nil {
		p := *c.Promo
		out.Promo = &p
	}
	return &out
}

func (m *memCarts) GetByAccountID(ctx context.Context, accountID string) (*cartdom.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	return cloneCart(m.byAccount[accountID]), nil
}

func (m *memCarts) Upsert(ctx context.Context, c *cartdom.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.byAccount[c.ID] = cloneCart(c)
	return nil
}

func (m *memCarts) DeleteByAccountID(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byAccount, accountID)
	return nil
}

// ----------------------------
// shipping address
// ----------------------------

type memAddrs struct {
	byID map[string]addrdom.Address
}

func newMemAddrs(list ...addrdom.Address) *memAddrs {
	m := &memAddrs{byID: map[string]addrdom.Address{}}
	for _, a := range list {
		m.byID[a.ID] = a
	}
	return m
}

func (m *memAddrs) GetByID(ctx context.Context, id string) (addrdom.Address, error) {
	a, ok := m.byID[id]
	if !ok {
		return addrdom.Address{}, addrdom.ErrNotFound
	}
	return a, nil
}

func (m *memAddrs) ListByAccountID(ctx context.Context, accountID string) ([]addrdom.Address, error) {
	var out []addrdom.Address
	for _, a := range m.byID {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAddrs) Create(ctx context.Context, a addrdom.Address) (addrdom.Address, error) {
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAddrs) Save(ctx context.Context, a addrdom.Address) error {
	m.byID[a.ID] = a
	return nil
}

func (m *memAddrs) Delete(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

// ----------------------------
// orders
// ----------------------------

type memOrders struct {
	mu         sync.Mutex
	byID       map[string]orderdom.Order
	bySnapshot map[string]string
	failCreate error
	creates    int
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[string]orderdom.Order{}, bySnapshot: map[string]string{}}
}

func (m *memOrders) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) GetBySnapshotID(ctx context.Context, snapshotID string) (orderdom.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySnapshot[snapshotID]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memOrders) ListByAccountID(ctx context.Context, accountID string, page, perPage int) ([]orderdom.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []orderdom.Order
	for _, o := range m.byID {
		if o.AccountID == accountID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, len(all), nil
}

func (m *memOrders) Create(ctx context.Context, o orderdom.Order) (orderdom.Order, error) {
	out, created, err := m.CreateIfAbsent(ctx, o)
	if err != nil {
		return orderdom.Order{}, err
	}
	if !created {
		return orderdom.Order{}, orderdom.ErrConflict
	}
	return out, nil
}

func (m *memOrders) CreateIfAbsent(ctx context.Context, o orderdom.Order) (orderdom.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return orderdom.Order{}, false, m.failCreate
	}
	if id, ok := m.bySnapshot[o.SnapshotID]; ok {
		return m.byID[id], false, nil
	}
	m.creates++
	m.byID[o.ID] = o
	m.bySnapshot[o.SnapshotID] = o.ID
	return o, true, nil
}

func (m *memOrders) Save(ctx context.Context, o orderdom.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return orderdom.ErrNotFound
	}
	m.byID[o.ID] = o
	return nil
}

// ----------------------------
// ledger
// ----------------------------

type debitRecord struct {
	Source  ledgerdom.Source
	Amount  int
	OrderID string
}

type memLedger struct {
	balances map[string]ledgerdom.Balances
	debits   []debitRecord
	failWith error
}

func newMemLedger() *memLedger {
	return &memLedger{balances: map[string]ledgerdom.Balances{}}
}

func (m *memLedger) set(accountID string, commission, wallet int) {
	m.balances[accountID] = ledgerdom.Balances{
		AccountID:         accountID,
		CommissionBalance: commission,
		WalletBalance:     wallet,
	}
}

func (m *memLedger) GetBalances(ctx context.Context, accountID string) (ledgerdom.Balances, error) {
	b, ok := m.balances[accountID]
	if !ok {
		return ledgerdom.Balances{}, ledgerdom.ErrNotFound
	}
	return b, nil
}

func (m *memLedger) DebitCommission(ctx context.Context, accountID string, amount int, orderID string) error {
	return m.debit(accountID, ledgerdom.SourceCommission, amount, orderID)
}

func (m *memLedger) DebitWallet(ctx context.Context, accountID string, amount int, orderID string) error {
	return m.debit(accountID, ledgerdom.SourceWallet, amount, orderID)
}

func (m *memLedger) debit(accountID string, src ledgerdom.Source, amount int, orderID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	b := m.balances[accountID]
	switch src {
	case ledgerdom.SourceCommission:
		if b.CommissionBalance < amount {
			return ledgerdom.ErrInsufficientFunds
		}
		b.CommissionBalance -= amount
	default:
		if b.WalletBalance < amount {
			return ledgerdom.ErrInsufficientFunds
		}
		b.WalletBalance -= amount
	}
	m.balances[accountID] = b
	m.debits = append(m.debits, debitRecord{Source: src, Amount: amount, OrderID: orderID})
	return nil
}

// ----------------------------
// gateway
// ----------------------------

type memGateway struct {
	ref      string
	failWith error
	opens    []checkoutdom.OpenRequest

	// onOpen lets a test observe state at the moment the gateway is
	// called (intent-persisted-before-open assertions).
	onOpen func(req checkoutdom.OpenRequest)
}

func (g *memGateway) Open(ctx context.Context, req checkoutdom.OpenRequest) (string, error) {
	if g.onOpen != nil {
		g.onOpen(req)
	}
	if g.failWith != nil {
		return "", g.failWith
	}
	g.opens = append(g.opens, req)
	if g.ref == "" {
		return "txn-1", nil
	}
	return g.ref, nil
}

// ----------------------------
// intents / sessions / snapshots
// ----------------------------

type memIntents struct {
	mu   sync.Mutex
	byID map[string]checkoutdom.PaymentIntent
}

func newMemIntents() *memIntents {
	return &memIntents{byID: map[string]checkoutdom.PaymentIntent{}}
}

func (m *memIntents) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.byID[snapshotID]
	if !ok {
		return checkoutdom.PaymentIntent{}, checkoutdom.ErrIntentNotFound
	}
	return pi, nil
}

func (m *memIntents) Create(ctx context.Context, pi checkoutdom.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[pi.SnapshotID]; ok {
		return errors.New("memIntents: already exists")
	}
	m.byID[pi.SnapshotID] = pi
	return nil
}

func (m *memIntents) Save(ctx context.Context, pi checkoutdom.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[pi.SnapshotID] = pi
	return nil
}

func (m *memIntents) ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]checkoutdom.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkoutdom.PaymentIntent
	for _, pi := range m.byID {
		if pi.Status == checkoutdom.IntentOpened && pi.OpenedAt.Before(cutoff) {
			out = append(out, pi)
		}
	}
	return out, nil
}

func (m *memIntents) ListSucceededUnconsumed(ctx context.Context) ([]checkoutdom.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkoutdom.PaymentIntent
	for _, pi := range m.byID {
		if pi.Status == checkoutdom.IntentSucceeded {
			out = append(out, pi)
		}
	}
	return out, nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]checkoutdom.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[string]checkoutdom.Session{}}
}

func (m *memSessions) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[snapshotID]
	if !ok {
		return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) GetActiveByAccountID(ctx context.Context, accountID string) (checkoutdom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.AccountID == accountID && !s.State.Terminal() {
			return s, nil
		}
	}
	return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
}

func (m *memSessions) Create(ctx context.Context, s checkoutdom.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.SnapshotID]; ok {
		return errors.New("memSessions: already exists")
	}
	m.byID[s.SnapshotID] = s
	return nil
}

func (m *memSessions) Save(ctx context.Context, s checkoutdom.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.SnapshotID] = s
	return nil
}

type memSnapshots struct {
	mu      sync.Mutex
	byID    map[string]checkoutdom.Snapshot
	deleted []string
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{byID: map[string]checkoutdom.Snapshot{}}
}

func (m *memSnapshots) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[snapshotID]
	if !ok {
		return checkoutdom.Snapshot{}, checkoutdom.ErrSnapshotNotFound
	}
	return s, nil
}

func (m *memSnapshots) Create(ctx context.Context, s checkoutdom.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.SnapshotID]; ok {
		return errors.New("memSnapshots: already exists")
	}
	m.byID[s.SnapshotID] = s
	return nil
}

func (m *memSnapshots) Delete(ctx context.Context, snapshotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, snapshotID)
	m.deleted = append(m.deleted, snapshotID)
	return nil
}

// ----------------------------
// promos
// ----------------------------

type memPromos struct {
	byID map[string]promodom.Promo
}

func newMemPromos(list ...promodom.Promo) *memPromos {
	m := &memPromos{byID: map[string]promodom.Promo{}}
	for _, p := range list {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memPromos) GetByCode(ctx context.Context, code string) (promodom.Promo, error) {
	up := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range m.byID {
		if p.Code == up {
			return p, nil
		}
	}
	return promodom.Promo{}, promodom.ErrNotFound
}

func (m *memPromos) Create(ctx context.Context, p promodom.Promo) (promodom.Promo, error) {
	m.byID[p.ID] = p
	return p, nil
}

func (m *memPromos) Save(ctx context.Context, p promodom.Promo) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memPromos) Delete(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memPromos) List(ctx context.Context) ([]promodom.Promo, error) {
	var out []promodom.Promo
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

// ----------------------------
// events / escalation / metrics
// ----------------------------

type memPublisher struct {
	mu     sync.Mutex
	events []SettlementEvent
}

func (m *memPublisher) Publish(ctx context.Context, ev SettlementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memPublisher) ofType(t string) []SettlementEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SettlementEvent
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type memEscalator struct {
	subjects []string
}

func (m *memEscalator) Escalate(ctx context.Context, subject, body string) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

type memMetrics struct {
	started map[string]int
	settled map[string]int
	failed  map[string]int
}

func newMemMetrics() *memMetrics {
	return &memMetrics{started: map[string]int{}, settled: map[string]int{}, failed: map[string]int{}}
}

func (m *memMetrics) Started(method string) { m.started[method]++ }
func (m *memMetrics) Settled(method string) { m.settled[method]++ }
func (m *memMetrics) Failed(kind string)    { m.failed[kind]++ }
