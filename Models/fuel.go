package Models

import "gorm.io/gorm"

// FuelCard links a TFN card number to a vehicle. Matching is done on the
// normalised registration number reported by TFN, not the card number alone,
// because cards get re-issued against new registrations.
type FuelCard struct {
	gorm.Model
	CardNo         string `json:"card_no" gorm:"unique"`
	VehicleID      *uint  `json:"vehicle_id" gorm:"index"`
	RegistrationNo string `json:"registration_no"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}

// FuelTransaction is one imported TFN fuel purchase.
type FuelTransaction struct {
	gorm.Model
	TransactionRef string `json:"transaction_ref" gorm:"unique"`
	CardNo         string `json:"card_no" gorm:"index"`
	VehicleID      *uint  `json:"vehicle_id" gorm:"index"`
	RegistrationNo string `json:"registration_no"`

	Date       string  `json:"date"` // 2006-01-02 15:04:05
	MerchantName string `json:"merchant_name"`
	Town       string  `json:"town"`
	Litres     float64 `json:"litres"`
	PricePerL  float64 `json:"price_per_l"`
	Amount     float64 `json:"amount"`
	Odometer   int     `json:"odometer"`
	Product    string  `json:"product"` // Diesel 50ppm, ULP 95
}
