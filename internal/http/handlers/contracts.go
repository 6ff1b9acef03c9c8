package handlers

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
)

type authUsecase interface {
	Login(ctx context.Context, email, password string) (*dispatch.LoginResult, error)
	Register(ctx context.Context, email, password string, role domain.Role) (*domain.Principal, error)
	Me(ctx context.Context, caller *domain.Principal) (*dispatch.Me, error)
}

type orderUsecase interface {
	CreateOrder(ctx context.Context, caller *domain.Principal, in orders.CreateInput) (*domain.Order, error)
	ListOrders(ctx context.Context, caller *domain.Principal) ([]domain.Order, error)
	GetOrder(ctx context.Context, caller *domain.Principal, orderID string) (*domain.Order, error)
	AssignOrder(ctx context.Context, caller *domain.Principal, orderID, partnerID string) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, caller *domain.Principal, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type partnerUsecase interface {
	ProvisionPartner(ctx context.Context, caller *domain.Principal, in partners.ProvisionInput) (*domain.Partner, error)
	ListPartners(ctx context.Context, caller *domain.Principal) ([]domain.PartnerSummary, error)
	GetPartner(ctx context.Context, caller *domain.Principal, partnerID string) (*domain.PartnerDetails, error)
	MyOrders(ctx context.Context, caller *domain.Principal, status string) ([]domain.Order, error)
	MyActiveOrders(ctx context.Context, caller *domain.Principal) ([]domain.Order, error)
	SetMyAvailability(ctx context.Context, caller *domain.Principal, a domain.Availability) (*domain.Partner, error)
	SetMyLocation(ctx context.Context, caller *domain.Principal, loc domain.Location) (*domain.Partner, error)
	MyProfile(ctx context.Context, caller *domain.Principal) (*dispatch.Profile, error)
}
