package models

import "time"

// Base carries the identity and timestamps shared by every table.
type Base struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) Meta() *Base {
	return b
}

// Record is implemented by every pointer to a struct embedding Base.
type Record interface {
	Meta() *Base
}

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // never exposed through the API
	Name         string `json:"name"`
	IsAdmin      bool   `json:"isAdmin"`
}

// All lists every table managed by the content database, parents first.
func All() []any {
	return []any{
		&User{},
		&Service{},
		&SubService{},
		&SubSubService{},
		&FAQItem{},
		&Appointment{},
		&MenuItem{},
		&DropdownItem{},
		&BlogPost{},
		&ContactInfo{},
		&ContactBenefit{},
		&ContactService{},
		&PricingGroup{},
		&PricingItem{},
		&SocialLink{},
		&QuickLink{},
		&FooterSettings{},
		&TopBar{},
		&Slide{},
		&Testimonial{},
		&ExperienceStat{},
		&ExperienceContent{},
		&InfoBlock{},
	}
}
