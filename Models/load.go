package Models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LoadStatus is the closed set of states a load moves through. Handlers must
// go through CanTransitionTo instead of comparing raw strings.
type LoadStatus string

const (
	LoadStatusAvailable LoadStatus = "Available"
	LoadStatusAssigned  LoadStatus = "Assigned"
	LoadStatusInTransit LoadStatus = "InTransit"
	LoadStatusDelivered LoadStatus = "Delivered"
	LoadStatusCancelled LoadStatus = "Cancelled"
)

var loadTransitions = map[LoadStatus][]LoadStatus{
	LoadStatusAvailable: {LoadStatusAssigned, LoadStatusCancelled},
	LoadStatusAssigned:  {LoadStatusInTransit, LoadStatusAvailable, LoadStatusCancelled},
	LoadStatusInTransit: {LoadStatusDelivered},
	LoadStatusDelivered: {},
	LoadStatusCancelled: {},
}

// IsValid reports whether s is one of the known statuses.
func (s LoadStatus) IsValid() bool {
	_, ok := loadTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s LoadStatus) CanTransitionTo(target LoadStatus) bool {
	for _, allowed := range loadTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseLoadStatus validates a raw status string from a request body.
func ParseLoadStatus(raw string) (LoadStatus, error) {
	s := LoadStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown load status %q", raw)
	}
	return s, nil
}

// Load is a dispatch unit: a set of invoices travelling together on one
// vehicle. LoadNo comes from the number sequence allocator, never from
// "last row + 1".
type Load struct {
	gorm.Model
	LoadNo    string     `json:"load_no" gorm:"unique"`
	Status    LoadStatus `json:"status" gorm:"type:varchar(20);index"`
	DriverID  *uint      `json:"driver_id"`
	VehicleID *uint      `json:"vehicle_id"`

	DriverName    string `json:"driver_name"`
	RegistrationNo string `json:"registration_no"`

	WarehouseID uint `json:"warehouse_id"`

	ScheduledPickupDate   *time.Time `json:"scheduled_pickup_date"`
	ScheduledDeliveryDate *time.Time `json:"scheduled_delivery_date"`
	DeliveredAt           *time.Time `json:"delivered_at"`

	Notes string `json:"notes" gorm:"type:text"`

	Invoices   []Invoice  `json:"invoices" gorm:"foreignKey:LoadID"`
	TripSheets []TripSheet `json:"trip_sheets" gorm:"foreignKey:LoadID"`
}

// DeliveredOnTime compares the delivery timestamp against the scheduled
// delivery date plus a one-day grace window. Returns false when either
// timestamp is missing.
func (l *Load) DeliveredOnTime() bool {
	if l.DeliveredAt == nil || l.ScheduledDeliveryDate == nil {
		return false
	}
	return !l.DeliveredAt.After(l.ScheduledDeliveryDate.Add(24 * time.Hour))
}

// TripSheet is the rider-ready itinerary generated from an optimized route.
type TripSheet struct {
	gorm.Model
	TripSheetNo string `json:"trip_sheet_no" gorm:"unique"`
	LoadID      uint   `json:"load_id" gorm:"index"`
	BatchID     string `json:"batch_id"` // optimization request this sheet came from

	DepotName      string  `json:"depot_name"`
	DepotAddress   string  `json:"depot_address"`
	DepotLatitude  float64 `json:"depot_latitude"`
	DepotLongitude float64 `json:"depot_longitude"`

	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalDurationMin float64 `json:"total_duration_min"`
	ReturnToDepot    bool    `json:"return_to_depot"`
	Optimized        bool    `json:"optimized"`

	DepartureTime *time.Time `json:"departure_time"`

	Stops []TripSheetStop `json:"stops" gorm:"foreignKey:TripSheetID;constraint:OnDelete:CASCADE"`
}

// TripSheetStop is one visited destination in final visiting order.
type TripSheetStop struct {
	gorm.Model
	TripSheetID uint `json:"trip_sheet_id" gorm:"index;not null"`
	Sequence    int  `json:"sequence" gorm:"not null"`

	CustomerID   *uint   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	Value              float64 `json:"value"`
	Priority           string  `json:"priority" gorm:"type:varchar(10)"`
	ServiceTimeMinutes int     `json:"service_time_minutes"`
	Notes              string  `json:"notes" gorm:"type:text"`

	LegDistanceKm  float64 `json:"leg_distance_km"`
	LegDurationMin float64 `json:"leg_duration_min"`
}
