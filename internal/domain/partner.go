package domain

import (
	"math"
	"regexp"
	"time"
)

// Availability says whether a partner is willing to take new orders.
type Availability string

// List of partner availabilities
const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
)

var allowedAvailabilities = [...]Availability{Available, Unavailable}

// Valid checks if the Availability is valid
func (a Availability) Valid() bool {
	for _, v := range allowedAvailabilities {
		if a == v {
			return true
		}
	}
	return false
}

// Location is a coordinate pair with an optional address.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Valid reports whether both coordinates are finite and inside their ranges.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Partner is the delivery-side profile of a delivery_partner principal.
type Partner struct {
	ID            string
	PrincipalID   string
	Name          string
	ContactNumber string
	Location      Location
	Availability  Availability
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Assignable reports whether new orders may be given to the partner.
func (p *Partner) Assignable() bool {
	return p != nil && p.Availability == Available
}

// PartnerStats counts orders that were ever assigned to a partner.
type PartnerStats struct {
	Total     int
	Completed int
	Active    int
	PickedUp  int
}

// PartnerSummary is a partner row in the admin listing.
type PartnerSummary struct {
	Partner
	TotalOrders  int
	ActiveOrders int
}

// PartnerDetails is the admin view of a single partner.
type PartnerDetails struct {
	Partner      Partner
	RecentOrders []Order
	Stats        PartnerStats
}

var reContact = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidateContactNumber validates the contact number format
func ValidateContactNumber(s string) bool {
	return reContact.MatchString(s)
}
