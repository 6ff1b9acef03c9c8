package handlers

import "time"

type locationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// locationRequest keeps coordinates as pointers so a missing one is told apart from zero.
type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type partnerDTO struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"userId"`
	Name               string      `json:"name"`
	ContactNumber      string      `json:"contactNumber"`
	CurrentLocation    locationDTO `json:"currentLocation"`
	AvailabilityStatus string      `json:"availabilityStatus"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

type partnerSummaryDTO struct {
	partnerDTO
	TotalOrders  int `json:"totalOrders"`
	ActiveOrders int `json:"activeOrders"`
}

type statsDTO struct {
	TotalOrders     int `json:"totalOrders"`
	CompletedOrders int `json:"completedOrders"`
	ActiveOrders    int `json:"activeOrders"`
	PickedUpOrders  int `json:"pickedUpOrders"`
}

type partnerDetailsDTO struct {
	Partner      partnerDTO `json:"partner"`
	RecentOrders []orderDTO `json:"recentOrders"`
	Stats        statsDTO   `json:"stats"`
}

type profileDTO struct {
	Partner partnerDTO `json:"partner"`
	Stats   statsDTO   `json:"stats"`
}

type orderDTO struct {
	ID               string      `json:"id"`
	OrderID          string      `json:"orderId"`
	ItemName         string      `json:"itemName"`
	CustomerName     string      `json:"customerName"`
	DeliveryLocation locationDTO `json:"deliveryLocation"`
	Status           string      `json:"status"`
	AssignedTo       *string     `json:"assignedTo"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	User    userDTO     `json:"user"`
	Partner *partnerDTO `json:"partner,omitempty"`
}

type meResponse struct {
	User    userDTO     `json:"user"`
	Partner *partnerDTO `json:"partner,omitempty"`
}

type createOrderRequest struct {
	OrderID          string           `json:"orderId"`
	ItemName         string           `json:"itemName"`
	CustomerName     string           `json:"customerName"`
	DeliveryLocation *locationRequest `json:"deliveryLocation"`
}

type assignOrderRequest struct {
	PartnerID string `json:"partnerId"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type createPartnerRequest struct {
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Password        string           `json:"password"`
	ContactNumber   string           `json:"contactNumber"`
	CurrentLocation *locationRequest `json:"currentLocation"`
}
