package Models

import "gorm.io/gorm"

// Customer is a delivery destination account. Coordinates are stamped by the
// batch geocoding endpoint and reused by the stop aggregator so repeat
// optimizations don't hit the geocoder again.
type Customer struct {
	gorm.Model
	Code         string `json:"code" gorm:"unique"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Email        string `json:"email"`

	// Address details
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`

	// Resolved delivery coordinates
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	GeocodeAccuracy   string  `json:"geocode_accuracy"`

	OnHold bool `json:"on_hold"`
}

// HasCoordinates reports whether a usable delivery position is stored.
func (c *Customer) HasCoordinates() bool {
	return c.DeliveryLatitude != 0 || c.DeliveryLongitude != 0
}

// FullAddress joins the stored address parts into a single geocoding query.
func (c *Customer) FullAddress() string {
	parts := []string{c.AddressLine1, c.AddressLine2, c.City, c.Province, c.PostalCode}
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
