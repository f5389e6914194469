package model

import "time"

// Notification kinds recorded in sent_notifications.
const (
	NotifTypeLowScore = "low_score"
)

type PushSubscription struct {
	ID         PushSubscriptionID `json:"id"`
	UserID     UserID             `json:"user_id"`
	Endpoint   string             `json:"endpoint"`
	P256dhKey  string             `json:"p256dh_key"`
	AuthKey    string             `json:"auth_key"`
	DeviceName string             `json:"device_name"`
	CreatedAt  time.Time          `json:"created_at"`
}
