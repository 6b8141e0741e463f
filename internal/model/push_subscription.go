package model

import "time"

// PushSubscription holds a browser push subscription of an admin who wants
// maintenance reminders.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	OperatorID string    `gorm:"index;size:64;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
