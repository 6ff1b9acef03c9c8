package dispatch_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ordertx"
	"service-dispatch/internal/ports/partnertx"
)

// memStore keeps all state behind one mutex; a transaction holds it for its
// whole duration and restores a snapshot when fn fails.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	partners map[string]domain.Partner
	orders   map[string]domain.Order
	seq      map[string]int
	next     int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]domain.Account{},
		partners: map[string]domain.Partner{},
		orders:   map[string]domain.Order{},
		seq:      map[string]int{},
	}
}

type snapshot struct {
	accounts map[string]domain.Account
	partners map[string]domain.Partner
	orders   map[string]domain.Order
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		accounts: make(map[string]domain.Account, len(s.accounts)),
		partners: make(map[string]domain.Partner, len(s.partners)),
		orders:   make(map[string]domain.Order, len(s.orders)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.partners {
		snap.partners[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.accounts, s.partners, s.orders = snap.accounts, snap.partners, snap.orders
}

func (s *memStore) inTx(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) countActive(partnerID string) int {
	n := 0
	for _, o := range s.orders {
		if o.IsAssignedTo(partnerID) && o.Status.Active() {
			n++
		}
	}
	return n
}

func (s *memStore) ordersOf(partnerID string, statuses []domain.OrderStatus) []domain.Order {
	out := []domain.Order{}
	for _, o := range s.sortedOrders() {
		if !o.IsAssignedTo(partnerID) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (s *memStore) sortedOrders() []domain.Order {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] > s.seq[out[j].ID] })
	return out
}

func containsStatus(list []domain.OrderStatus, st domain.OrderStatus) bool {
	for _, v := range list {
		if v == st {
			return true
		}
	}
	return false
}

func clonePartner(p domain.Partner, ok bool) *domain.Partner {
	if !ok {
		return nil
	}
	return &p
}

// accounts view

type accountView struct{ s *memStore }

func (v accountView) GetByID(_ context.Context, id string) (*domain.Account, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (v accountView) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, a := range v.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (v accountView) Create(_ context.Context, a *domain.Account) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.insertAccount(a)
}

func (s *memStore) insertAccount(a *domain.Account) error {
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return apperr.ErrAlreadyExists
		}
	}
	s.accounts[a.ID] = *a
	return nil
}

// partners view

type partnerView struct{ s *memStore }

func (v partnerView) WithTx(_ context.Context, fn func(tx partnertx.Repository) error) error {
	return v.s.inTx(func() error { return fn(partnerTx{s: v.s}) })
}

func (v partnerView) Get(_ context.Context, id string) (*domain.Partner, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return clonePartner(v.s.partners[id], hasKey(v.s.partners, id)), nil
}

func (v partnerView) GetByPrincipal(_ context.Context, principalID string) (*domain.Partner, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, p := range v.s.partners {
		if p.PrincipalID == principalID {
			return &p, nil
		}
	}
	return nil, nil
}

func (v partnerView) CountActiveOrders(_ context.Context, partnerID string) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.countActive(partnerID), nil
}

func (v partnerView) UpdateLocation(_ context.Context, id string, loc domain.Location, at time.Time) (*domain.Partner, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.partners[id]
	if !ok {
		return nil, nil
	}
	p.Location = loc
	p.UpdatedAt = at
	v.s.partners[id] = p
	return &p, nil
}

func (v partnerView) List(context.Context) ([]domain.PartnerSummary, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]domain.PartnerSummary, 0, len(v.s.partners))
	for _, p := range v.s.partners {
		out = append(out, domain.PartnerSummary{
			Partner:      p,
			TotalOrders:  len(v.s.ordersOf(p.ID, nil)),
			ActiveOrders: v.s.countActive(p.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v partnerView) Stats(_ context.Context, partnerID string) (domain.PartnerStats, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var st domain.PartnerStats
	for _, o := range v.s.ordersOf(partnerID, nil) {
		st.Total++
		switch o.Status {
		case domain.StatusDelivered:
			st.Completed++
		case domain.StatusPickedUp:
			st.PickedUp++
			st.Active++
		case domain.StatusAssigned:
			st.Active++
		}
	}
	return st, nil
}

func (v partnerView) RecentOrders(_ context.Context, partnerID string, limit int) ([]domain.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	list := v.s.ordersOf(partnerID, nil)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type partnerTx struct{ s *memStore }

func (t partnerTx) GetPartnerForUpdate(_ context.Context, id string) (*domain.Partner, error) {
	return clonePartner(t.s.partners[id], hasKey(t.s.partners, id)), nil
}

func (t partnerTx) CountActiveOrders(_ context.Context, partnerID string) (int, error) {
	return t.s.countActive(partnerID), nil
}

func (t partnerTx) UpdateAvailability(_ context.Context, id string, a domain.Availability, at time.Time) error {
	p := t.s.partners[id]
	p.Availability = a
	p.UpdatedAt = at
	t.s.partners[id] = p
	return nil
}

func (t partnerTx) InsertAccount(_ context.Context, a *domain.Account) error {
	return t.s.insertAccount(a)
}

func (t partnerTx) InsertPartner(_ context.Context, p *domain.Partner) error {
	t.s.partners[p.ID] = *p
	return nil
}

// orders view

type orderView struct{ s *memStore }

func (v orderView) WithTx(_ context.Context, fn func(tx ordertx.Repository) error) error {
	return v.s.inTx(func() error { return fn(orderTx{s: v.s}) })
}

func (v orderView) Create(_ context.Context, o *domain.Order) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.orders {
		if existing.Reference == o.Reference {
			return apperr.ErrAlreadyExists
		}
	}
	v.s.next++
	v.s.seq[o.ID] = v.s.next
	v.s.orders[o.ID] = *o
	return nil
}

func (v orderView) Get(_ context.Context, id string) (*domain.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (v orderView) List(context.Context) ([]domain.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.sortedOrders(), nil
}

func (v orderView) ListByPartner(_ context.Context, partnerID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.ordersOf(partnerID, statuses), nil
}

type orderTx struct{ s *memStore }

func (t orderTx) GetOrderForUpdate(_ context.Context, id string) (*domain.Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (t orderTx) GetPartnerForShare(_ context.Context, id string) (*domain.Partner, error) {
	return clonePartner(t.s.partners[id], hasKey(t.s.partners, id)), nil
}

func (t orderTx) ChangeStatus(_ context.Context, c domain.StatusChange) (bool, error) {
	o, ok := t.s.orders[c.OrderID]
	if !ok || o.Status != c.From {
		return false, nil
	}
	o.Status = c.To
	if c.AssignTo != nil {
		id := *c.AssignTo
		o.AssignedTo = &id
	}
	o.UpdatedAt = c.At
	t.s.orders[c.OrderID] = o
	return true, nil
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

// checkInvariants returns a description of the first broken invariant, or "".
func (s *memStore) checkInvariants() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if (o.AssignedTo == nil) != (o.Status == domain.StatusPending) {
			return "order " + o.ID + " has assignee/status mismatch"
		}
	}
	for _, p := range s.partners {
		if p.Availability == domain.Unavailable && s.countActive(p.ID) > 0 {
			return "partner " + p.ID + " is unavailable with active orders"
		}
	}
	return ""
}
