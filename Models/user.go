package Models

import "gorm.io/gorm"

// User represents a back-office account. Permission levels:
// 1 = viewer, 2 = clerk, 3 = dispatcher/finance, 4 = administrator
type User struct {
	gorm.Model
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"unique"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission"`
	IsApproved int    `json:"is_approved"`
	DriverID   *uint  `json:"driver_id"` // set when the account belongs to a driver
}

// FCMToken stores a device registration token for push notifications
type FCMToken struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index"`
	Token  string `json:"token" gorm:"type:varchar(512)"`
}
