package models

import "time"

type NotificationPrefs struct {
	Email   bool `json:"email"`
	Browser bool `json:"browser"`
	Updates bool `json:"updates"`
}

type UserSettings struct {
	UserID        string            `json:"user_id"`
	Theme         string            `json:"theme"` // "light" | "dark" | "system"
	Notifications NotificationPrefs `json:"notifications"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID: userID,
		Theme:  "system",
		Notifications: NotificationPrefs{
			Email:   true,
			Browser: true,
			Updates: true,
		},
	}
}

type UpdateSettingsRequest struct {
	Theme         *string            `json:"theme"`
	Notifications *NotificationPrefs `json:"notifications"`
}
