//go:build integration

package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ordertx"
	"service-dispatch/internal/ports/partnertx"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "h:" + password, nil }

type DispatchRepositorySuite struct {
	suite.Suite
	accounts *repository.AccountRepo
	partners *repository.PartnerRepo
	orders   *repository.OrderRepo
	engine   *orders.Engine
	registry *partners.Registry
}

func TestDispatchRepositorySuite(t *testing.T) {
	suite.Run(t, new(DispatchRepositorySuite))
}

func (s *DispatchRepositorySuite) SetupSuite() {
	s.accounts = repository.NewAccountRepo(tcPool)
	s.partners = repository.NewPartnerRepo(tcPool)
	s.orders = repository.NewOrderRepo(tcPool)
	s.engine = orders.NewEngine(s.orders, 5*time.Second, nil)
	s.registry = partners.NewRegistry(s.partners, plainHasher{}, 5*time.Second, nil)
}

func (s *DispatchRepositorySuite) SetupTest() {
	_, err := tcPool.Exec(context.Background(), `TRUNCATE orders, partners, users CASCADE`)
	s.Require().NoError(err)
}

func (s *DispatchRepositorySuite) provision(email string) *domain.Partner {
	p, err := s.registry.Provision(context.Background(), partners.ProvisionInput{
		Name:          "Rider " + email,
		Email:         email,
		Password:      "secret1",
		ContactNumber: "+79990000000",
		Location:      domain.Location{Latitude: 55.75, Longitude: 37.62, Address: "Tverskaya 1"},
	})
	s.Require().NoError(err)
	return p
}

func (s *DispatchRepositorySuite) createOrder(ref string) *domain.Order {
	o, err := s.engine.Create(context.Background(), orders.CreateInput{
		Reference:        ref,
		ItemName:         "Books",
		CustomerName:     "Ivan",
		DeliveryLocation: domain.Location{Latitude: 55.7, Longitude: 37.6, Address: "Arbat 10"},
	})
	s.Require().NoError(err)
	return o
}

func (s *DispatchRepositorySuite) TestAccounts_CreateAndGet() {
	ctx := context.Background()
	a := &domain.Account{
		Principal:    domain.Principal{ID: uuid.NewString(), Email: "admin@example.com", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC()},
		PasswordHash: "hash",
	}
	s.Require().NoError(s.accounts.Create(ctx, a))

	got, err := s.accounts.GetByEmail(ctx, "admin@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(a.ID, got.ID)
	s.Equal(domain.RoleAdmin, got.Role)

	byID, err := s.accounts.GetByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("admin@example.com", byID.Email)

	dup := *a
	dup.ID = uuid.NewString()
	s.ErrorIs(s.accounts.Create(ctx, &dup), apperr.ErrAlreadyExists)

	missing, err := s.accounts.GetByID(ctx, "not-a-uuid")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *DispatchRepositorySuite) TestProvision_DuplicateEmailRollsBack() {
	ctx := context.Background()
	s.provision("rider@example.com")

	_, err := s.registry.Provision(ctx, partners.ProvisionInput{
		Name:          "Second",
		Email:         "rider@example.com",
		Password:      "secret1",
		ContactNumber: "+79990000001",
	})
	s.Require().ErrorIs(err, apperr.ErrAlreadyExists)

	list, err := s.partners.List(ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *DispatchRepositorySuite) TestOrders_LifecycleAndQueries() {
	ctx := context.Background()
	p := s.provision("rider@example.com")
	o := s.createOrder("ORD-1")
	s.createOrder("ORD-2")

	_, err := s.engine.Create(ctx, orders.CreateInput{Reference: "ORD-1", ItemName: "x", CustomerName: "y"})
	s.Require().ErrorIs(err, apperr.ErrAlreadyExists)

	assigned, err := s.engine.Assign(ctx, o.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, assigned.Status)
	s.True(assigned.IsAssignedTo(p.ID))

	_, err = s.engine.AdvanceStatus(ctx, o.ID, p.ID, domain.StatusPickedUp)
	s.Require().NoError(err)

	active, err := s.orders.ListByPartner(ctx, p.ID, domain.ActiveStatuses)
	s.Require().NoError(err)
	s.Len(active, 1)

	all, err := s.orders.ListByPartner(ctx, p.ID, nil)
	s.Require().NoError(err)
	s.Len(all, 1)

	st, err := s.partners.Stats(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(domain.PartnerStats{Total: 1, Completed: 0, Active: 1, PickedUp: 1}, st)

	_, err = s.registry.SetAvailability(ctx, p.ID, domain.Unavailable)
	s.Require().ErrorIs(err, apperr.ErrConflict)

	done, err := s.engine.AdvanceStatus(ctx, o.ID, p.ID, domain.StatusDelivered)
	s.Require().NoError(err)
	s.Equal(domain.StatusDelivered, done.Status)

	_, err = s.engine.AdvanceStatus(ctx, o.ID, p.ID, domain.StatusPickedUp)
	var te *apperr.TransitionError
	s.Require().True(errors.As(err, &te))

	summaries, err := s.partners.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(summaries, 1)
	s.Equal(1, summaries[0].TotalOrders)
	s.Equal(0, summaries[0].ActiveOrders)

	recent, err := s.partners.RecentOrders(ctx, p.ID, 10)
	s.Require().NoError(err)
	s.Len(recent, 1)

	list, err := s.orders.List(ctx)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *DispatchRepositorySuite) TestChangeStatus_StaleFromIsRejected() {
	ctx := context.Background()
	p := s.provision("rider@example.com")
	o := s.createOrder("ORD-1")

	var applied bool
	err := s.orders.WithTx(ctx, func(tx ordertx.Repository) error {
		var err error
		applied, err = tx.ChangeStatus(ctx, domain.StatusChange{
			OrderID: o.ID, From: domain.StatusAssigned, To: domain.StatusPickedUp, At: time.Now().UTC(),
		})
		return err
	})
	s.Require().NoError(err)
	s.False(applied)

	err = s.orders.WithTx(ctx, func(tx ordertx.Repository) error {
		var err error
		applied, err = tx.ChangeStatus(ctx, domain.StatusChange{
			OrderID: o.ID, From: domain.StatusPending, To: domain.StatusAssigned, AssignTo: &p.ID, At: time.Now().UTC(),
		})
		return err
	})
	s.Require().NoError(err)
	s.True(applied)
}

func (s *DispatchRepositorySuite) TestSchema_RejectsAssignmentWithoutAssignee() {
	ctx := context.Background()
	o := s.createOrder("ORD-1")

	err := s.orders.WithTx(ctx, func(tx ordertx.Repository) error {
		_, err := tx.ChangeStatus(ctx, domain.StatusChange{
			OrderID: o.ID, From: domain.StatusPending, To: domain.StatusAssigned, At: time.Now().UTC(),
		})
		return err
	})
	s.Require().Error(err)

	got, err := s.orders.Get(ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, got.Status)
	s.Nil(got.AssignedTo)
}

func (s *DispatchRepositorySuite) TestPartnerTx_UpdateAvailability() {
	ctx := context.Background()
	p := s.provision("rider@example.com")

	err := s.partners.WithTx(ctx, func(tx partnertx.Repository) error {
		locked, err := tx.GetPartnerForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		s.Require().NotNil(locked)
		return tx.UpdateAvailability(ctx, p.ID, domain.Unavailable, time.Now().UTC())
	})
	s.Require().NoError(err)

	got, err := s.partners.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(domain.Unavailable, got.Availability)

	ok, err := s.registry.IsAssignable(ctx, p.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *DispatchRepositorySuite) TestUpdateLocation() {
	ctx := context.Background()
	p := s.provision("rider@example.com")

	loc := domain.Location{Latitude: -33.86, Longitude: 151.2, Address: "George St"}
	got, err := s.partners.UpdateLocation(ctx, p.ID, loc, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(loc, got.Location)

	missing, err := s.partners.UpdateLocation(ctx, uuid.NewString(), loc, time.Now().UTC())
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *DispatchRepositorySuite) TestConcurrentAssign_SingleWinner() {
	ctx := context.Background()
	o := s.createOrder("ORD-1")

	const n = 8
	riders := make([]*domain.Partner, n)
	for i := range riders {
		riders[i] = s.provision(uuid.NewString()[:8] + "@example.com")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, r := range riders {
		wg.Add(1)
		go func(partnerID string) {
			defer wg.Done()
			_, err := s.engine.Assign(ctx, o.ID, partnerID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			var te *apperr.TransitionError
			s.True(errors.As(err, &te), "unexpected error: %v", err)
		}(r.ID)
	}
	wg.Wait()

	s.Equal(1, wins)
	got, err := s.orders.Get(ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, got.Status)
	s.NotNil(got.AssignedTo)
}

func (s *DispatchRepositorySuite) TestConcurrentAssignAndUnavailable() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.SetupTest()
		p := s.provision("rider@example.com")
		o := s.createOrder("ORD-1")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.engine.Assign(ctx, o.ID, p.ID)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.registry.SetAvailability(ctx, p.ID, domain.Unavailable)
		}()
		wg.Wait()

		got, err := s.partners.Get(ctx, p.ID)
		s.Require().NoError(err)
		n, err := s.partners.CountActiveOrders(ctx, p.ID)
		s.Require().NoError(err)
		if got.Availability == domain.Unavailable {
			s.Zero(n, "unavailable partner must not hold active orders")
		}
	}
}
