package catalog

import "time"

// Vehicle is a rentable listing. Price is the per-day rate in whole currency
// units; Featured drives display ordering only.
type Vehicle struct {
	ID        string
	Title     string
	Price     int
	Seats     int
	Location  string
	Category  string
	Rating    float64
	ImageURL  string
	Featured  bool
	CreatedAt time.Time
}

// CreateParams contains write parameters for new listings.
type CreateParams struct {
	Title    string
	Price    int
	Seats    int
	Location string
	Category string
	ImageURL string
	Featured bool
}
