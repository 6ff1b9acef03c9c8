package handlers

import (
	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
)

// toModel requires both coordinates. Range checks happen in the services.
func (l *locationRequest) toModel(field string) (domain.Location, error) {
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return domain.Location{}, apperr.Invalidf("%s requires latitude and longitude", field)
	}
	return domain.Location{Latitude: *l.Latitude, Longitude: *l.Longitude, Address: l.Address}, nil
}

func (r createOrderRequest) toModel() (orders.CreateInput, error) {
	loc, err := r.DeliveryLocation.toModel("deliveryLocation")
	if err != nil {
		return orders.CreateInput{}, err
	}
	return orders.CreateInput{
		Reference:        r.OrderID,
		ItemName:         r.ItemName,
		CustomerName:     r.CustomerName,
		DeliveryLocation: loc,
	}, nil
}

func (r createPartnerRequest) toModel() (partners.ProvisionInput, error) {
	loc, err := r.CurrentLocation.toModel("currentLocation")
	if err != nil {
		return partners.ProvisionInput{}, err
	}
	return partners.ProvisionInput{
		Name:          r.Name,
		Email:         r.Email,
		Password:      r.Password,
		ContactNumber: r.ContactNumber,
		Location:      loc,
	}, nil
}

func locationToResponse(l domain.Location) locationDTO {
	return locationDTO{Latitude: l.Latitude, Longitude: l.Longitude, Address: l.Address}
}

func userToResponse(p domain.Principal) userDTO {
	return userDTO{ID: p.ID, Email: p.Email, Role: string(p.Role), CreatedAt: p.CreatedAt}
}

func partnerToResponse(p domain.Partner) partnerDTO {
	return partnerDTO{
		ID:                 p.ID,
		UserID:             p.PrincipalID,
		Name:               p.Name,
		ContactNumber:      p.ContactNumber,
		CurrentLocation:    locationToResponse(p.Location),
		AvailabilityStatus: string(p.Availability),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func optionalPartnerToResponse(p *domain.Partner) *partnerDTO {
	if p == nil {
		return nil
	}
	dto := partnerToResponse(*p)
	return &dto
}

func summariesToResponse(list []domain.PartnerSummary) []partnerSummaryDTO {
	out := make([]partnerSummaryDTO, 0, len(list))
	for _, s := range list {
		out = append(out, partnerSummaryDTO{
			partnerDTO:   partnerToResponse(s.Partner),
			TotalOrders:  s.TotalOrders,
			ActiveOrders: s.ActiveOrders,
		})
	}
	return out
}

func statsToResponse(s domain.PartnerStats) statsDTO {
	return statsDTO{
		TotalOrders:     s.Total,
		CompletedOrders: s.Completed,
		ActiveOrders:    s.Active,
		PickedUpOrders:  s.PickedUp,
	}
}

func orderToResponse(o domain.Order) orderDTO {
	return orderDTO{
		ID:               o.ID,
		OrderID:          o.Reference,
		ItemName:         o.ItemName,
		CustomerName:     o.CustomerName,
		DeliveryLocation: locationToResponse(o.DeliveryLocation),
		Status:           string(o.Status),
		AssignedTo:       o.AssignedTo,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func ordersToResponse(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToResponse(o))
	}
	return out
}
