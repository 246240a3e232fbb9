package Models

import (
	"time"

	"gorm.io/gorm"
)

// Warehouse doubles as the route depot: name, address and a resolved position.
type Warehouse struct {
	gorm.Model
	Name       string  `json:"name" gorm:"unique"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Province   string  `json:"province"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	IsActive   bool    `json:"is_active" gorm:"default:true"`
	IsDefault  bool    `json:"is_default"`
}

// DefaultWarehouse returns the depot for optimization requests that don't name
// one: the default warehouse if set, otherwise the first active one.
func DefaultWarehouse(db *gorm.DB) (*Warehouse, error) {
	var warehouse Warehouse
	err := db.Where("is_active = ? AND is_default = ?", true, true).First(&warehouse).Error
	if err == gorm.ErrRecordNotFound {
		err = db.Where("is_active = ?", true).Order("id").First(&warehouse).Error
	}
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// StockSnapshot is one imported SOH (stock on hand) extract from the ERP.
type StockSnapshot struct {
	gorm.Model
	WarehouseID uint      `json:"warehouse_id" gorm:"index"`
	BatchID     string    `json:"batch_id" gorm:"unique"`
	SourceFile  string    `json:"source_file"`
	TakenAt     time.Time `json:"taken_at"`
	LineCount   int       `json:"line_count"`

	Items []StockItem `json:"items" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
}

// StockItem is a single SOH line.
type StockItem struct {
	gorm.Model
	SnapshotID uint    `json:"snapshot_id" gorm:"index;not null"`
	ItemCode   string  `json:"item_code" gorm:"index"`
	Description string `json:"description"`
	QtyOnHand  float64 `json:"qty_on_hand"`
	UnitCost   float64 `json:"unit_cost"`
	BinNo      string  `json:"bin_no"`
}
