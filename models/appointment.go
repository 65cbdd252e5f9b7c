package models

import "time"

const (
	SourceAppointment = "appointment"
	SourceContact     = "contact"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ContactPreferences is a single choice stored as two flags.
type ContactPreferences struct {
	Phone bool `json:"phone"`
	Email bool `json:"email"`
}

// Select sets one channel and clears the other.
func (p *ContactPreferences) Select(channel string) {
	p.Phone = channel == "phone"
	p.Email = channel == "email"
}

func (p ContactPreferences) Valid() bool {
	return !(p.Phone && p.Email)
}

// Channel reports the preferred channel, email when none was chosen.
func (p ContactPreferences) Channel() string {
	if p.Phone {
		return "phone"
	}
	return "email"
}

type Appointment struct {
	Base
	Name               string             `gorm:"not null" json:"name"`
	Phone              string             `gorm:"not null" json:"phone"`
	Email              string             `gorm:"not null" json:"email"`
	Service            string             `json:"service"`
	Date               *string            `gorm:"size:10" json:"date"`
	Time               *string            `gorm:"size:5" json:"time"`
	Message            string             `gorm:"type:text" json:"message"`
	ContactPreferences ContactPreferences `gorm:"embedded;embeddedPrefix:contact_pref_" json:"contactPreferences"`
	Source             string             `gorm:"not null;index" json:"source"`
	Status             string             `gorm:"not null;index" json:"status"`
	EmailSent          bool               `json:"emailSent"`
	ReminderSent       *time.Time         `json:"reminderSent"`
	Notes              string             `gorm:"type:text" json:"notes"`
}

// CanRemind reports whether a reminder may be sent for the appointment.
func (a *Appointment) CanRemind() bool {
	return a.Source == SourceAppointment &&
		a.Date != nil && *a.Date != "" &&
		a.Time != nil && *a.Time != ""
}
