package rental

import "time"

// Status is the disposition of a rental request. Requests start pending and
// move exactly once to accepted or rejected; both are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// RentalStatusConfirmed is the only status a materialised rental carries.
const RentalStatusConfirmed = "confirmed"

// Request mirrors the rental_requests table.
type Request struct {
	ID              string
	UserID          string
	VehicleID       string
	StartDate       time.Time
	EndDate         time.Time
	TotalPrice      int
	Status          Status
	RejectionReason *string
	RequestedAt     time.Time
	RespondedAt     *time.Time
}

// RequestView is a request joined with the user and vehicle fields the
// dashboards display.
type RequestView struct {
	Request
	Username        string
	UserName        string
	VehicleTitle    string
	VehiclePrice    int
	VehicleCategory string
	VehicleImage    string
}

// Rental is a confirmed booking, created exactly once when a request is
// accepted.
type Rental struct {
	ID         string
	RequestID  string
	UserID     string
	VehicleID  string
	StartDate  time.Time
	EndDate    time.Time
	TotalPrice int
	Status     string
	CreatedAt  time.Time
}

// RentalView is a rental joined with user and vehicle display fields.
type RentalView struct {
	Rental
	Username     string
	VehicleTitle string
	VehiclePrice int
	VehicleImage string
}
