package Models

import "gorm.io/gorm"

type Driver struct {
	gorm.Model
	Name                  string `json:"name"`
	IDNumber              string `json:"id_number" gorm:"unique"`
	MobileNumber          string `json:"mobile_number"`
	LicenseCode           string `json:"license_code"`
	LicenseExpirationDate string `json:"license_expiration_date"`
	PrDPExpirationDate    string `json:"prdp_expiration_date"` // professional driving permit
	Transporter           string `json:"transporter"`
	IsActive              bool   `json:"is_active" gorm:"default:true"`
}

type Vehicle struct {
	gorm.Model
	RegistrationNo        string `json:"registration_no" gorm:"unique"`
	Make                  string `json:"make"`
	VehicleModel          string `json:"vehicle_model"`
	VehicleType           string `json:"vehicle_type"` // Rigid, Link, Bakkie
	CapacityKg            int    `json:"capacity_kg"`
	LicenseExpirationDate string `json:"license_expiration_date"`
	Transporter           string `json:"transporter"`

	// Tracking provider linkage
	TrackingUnitID string `json:"tracking_unit_id" gorm:"index"`

	// Last synced position
	LastLatitude  float64 `json:"last_latitude"`
	LastLongitude float64 `json:"last_longitude"`
	LastSpeed     int     `json:"last_speed"`
	LastIgnition  string  `json:"last_ignition"`
	LastSeenAt    string  `json:"last_seen_at"`

	// Fuel card linkage
	FuelCardNo string `json:"fuel_card_no"`
}
