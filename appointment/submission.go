package appointment

import (
	"encoding/json"
	"strings"
	"time"

	"klinika/models"
	"klinika/validation"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	maxMessageLength = 5000
)

// Contact holds the fields shared by every submission. The binding tags apply
// when an admin edit is bound by gin; public submissions run Validate instead.
type Contact struct {
	Name               string                    `json:"name" binding:"contact_name"`
	Phone              string                    `json:"phone" binding:"contact_phone"`
	Email              string                    `json:"email" binding:"contact_email"`
	Service            string                    `json:"service" binding:"max=200"`
	Message            string                    `json:"message" binding:"max=5000"`
	ContactPreferences models.ContactPreferences `json:"contactPreferences"`
}

// BookingRequest asks for a visit at a specific date and time.
type BookingRequest struct {
	Contact
	Date string `json:"date"`
	Time string `json:"time"`
}

// ContactRequest is a plain message; it never carries a date or time.
type ContactRequest struct {
	Contact
}

// Submission is either a *BookingRequest or a *ContactRequest.
type Submission interface {
	Source() string
	Validate() validation.FieldErrors
	Record() *models.Appointment
}

func (*BookingRequest) Source() string { return models.SourceAppointment }
func (*ContactRequest) Source() string { return models.SourceContact }

// DecodeSubmission picks the variant from the "source" field of raw.
func DecodeSubmission(raw []byte) (Submission, error) {
	var head struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, validation.FromBinding(err)
	}

	var sub Submission
	switch head.Source {
	case models.SourceAppointment:
		sub = &BookingRequest{}
	case models.SourceContact:
		sub = &ContactRequest{}
	case "":
		return nil, validation.FieldErrors{"source": "is required"}
	default:
		return nil, validation.FieldErrors{"source": "must be one of: appointment contact"}
	}

	if err := json.Unmarshal(raw, sub); err != nil {
		return nil, validation.FromBinding(err)
	}
	return sub, nil
}

func (c *Contact) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Service = strings.TrimSpace(c.Service)
	c.Message = strings.TrimSpace(c.Message)
}

func (c *Contact) validate() validation.FieldErrors {
	c.normalize()
	errs := validation.FieldErrors{}
	errs.Merge("", validation.Contact(c.Name, c.Phone, c.Email).Err())
	if !c.ContactPreferences.Valid() {
		errs.Add("contactPreferences", "choose either phone or email, not both")
	}
	if len([]rune(c.Message)) > maxMessageLength {
		errs.Add("message", "must be at most 5000 characters")
	}
	return errs
}

func (c *Contact) record(source string) *models.Appointment {
	return &models.Appointment{
		Name:               c.Name,
		Phone:              c.Phone,
		Email:              c.Email,
		Service:            c.Service,
		Message:            c.Message,
		ContactPreferences: c.ContactPreferences,
		Source:             source,
		Status:             models.StatusPending,
	}
}

func (b *BookingRequest) Validate() validation.FieldErrors {
	errs := b.Contact.validate()
	b.Date = strings.TrimSpace(b.Date)
	b.Time = strings.TrimSpace(b.Time)

	if b.Date == "" {
		errs.Add("date", "is required")
	} else if _, err := time.Parse(DateLayout, b.Date); err != nil {
		errs.Add("date", "must be a date in the format YYYY-MM-DD")
	}
	if b.Time == "" {
		errs.Add("time", "is required")
	} else if _, err := time.Parse(TimeLayout, b.Time); err != nil {
		errs.Add("time", "must be a time in the format HH:MM")
	}
	return errs.OrNil()
}

func (b *BookingRequest) Record() *models.Appointment {
	rec := b.Contact.record(models.SourceAppointment)
	date, at := b.Date, b.Time
	rec.Date = &date
	rec.Time = &at
	return rec
}

func (r *ContactRequest) Validate() validation.FieldErrors {
	return r.Contact.validate().OrNil()
}

func (r *ContactRequest) Record() *models.Appointment {
	return r.Contact.record(models.SourceContact)
}

// submissionFor rebuilds the variant matching an existing record's source.
func submissionFor(source string, c Contact, date, at *string) Submission {
	if source == models.SourceAppointment {
		b := &BookingRequest{Contact: c}
		if date != nil {
			b.Date = *date
		}
		if at != nil {
			b.Time = *at
		}
		return b
	}
	return &ContactRequest{Contact: c}
}
