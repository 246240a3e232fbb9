package Models

import "gorm.io/gorm"

// Invoice statuses are intentionally a small fixed set; transitions here are
// single-step (Pending -> Assigned -> Delivered) and guarded in the handlers.
const (
	InvoiceStatusPending   = "Pending"
	InvoiceStatusAssigned  = "Assigned"
	InvoiceStatusDelivered = "Delivered"
	InvoiceStatusCancelled = "Cancelled"
)

// Invoice is a billed order awaiting delivery. Amount and Returns are in rand;
// the optimization value of an invoice is Amount - Returns.
type Invoice struct {
	gorm.Model
	InvoiceNo   string `json:"invoice_no" gorm:"unique"`
	ReferenceNo string `json:"reference_no"`
	CustomerID  uint   `json:"customer_id" gorm:"index"`

	CustomerName string `json:"customer_name"`
	City         string `json:"city"`
	Province     string `json:"province"`
	Address      string `json:"address"`

	Amount  float64 `json:"amount"`
	Returns float64 `json:"returns"`

	Status string `json:"status" gorm:"type:varchar(20);index;default:Pending"`
	LoadID *uint  `json:"load_id" gorm:"index"`

	// Stamped by the optimization flow once the destination is resolved.
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	RouteSequence     int     `json:"route_sequence"`
	RouteBatchID      string  `json:"route_batch_id"`
}

// NetValue is the invoice's contribution to a delivery stop's value.
func (inv *Invoice) NetValue() float64 {
	return inv.Amount - inv.Returns
}

// PendingInvoices returns undelivered, unassigned invoices, optionally
// restricted to a set of IDs.
func PendingInvoices(db *gorm.DB, ids []uint) ([]Invoice, error) {
	query := db.Model(&Invoice{}).Where("status = ?", InvoiceStatusPending)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var invoices []Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
