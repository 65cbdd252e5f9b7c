package email

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"klinika/config"
	"klinika/models"
)

var ErrNotConfigured = errors.New("smtp is not configured")

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	domain   string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		domain:   strings.TrimSuffix(cfg.Domain, "/"),
		send:     smtp.SendMail,
	}
}

func (e *EmailService) Configured() bool {
	return e != nil && e.host != "" && e.from != ""
}

func describe(a *models.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vārds: %s\n", a.Name)
	fmt.Fprintf(&b, "Tālrunis: %s\n", a.Phone)
	fmt.Fprintf(&b, "E-pasts: %s\n", a.Email)
	if a.Service != "" {
		fmt.Fprintf(&b, "Pakalpojums: %s\n", a.Service)
	}
	if a.Date != nil && a.Time != nil {
		fmt.Fprintf(&b, "Datums un laiks: %s %s\n", *a.Date, *a.Time)
	}
	if a.Message != "" {
		fmt.Fprintf(&b, "Ziņa: %s\n", a.Message)
	}
	return b.String()
}

// SendSubmissionReceived confirms to the client that the request reached the clinic.
func (e *EmailService) SendSubmissionReceived(a *models.Appointment) error {
	subject := "Jūsu ziņa ir saņemta"
	intro := "Paldies! Esam saņēmuši Jūsu ziņu un drīzumā ar Jums sazināsimies."
	if a.Source == models.SourceAppointment {
		subject = "Jūsu pieraksts ir saņemts"
		intro = "Paldies! Esam saņēmuši Jūsu pieraksta pieprasījumu. Apstiprināsim to tuvākajā laikā."
	}

	body := fmt.Sprintf(`
Labdien, %s!

%s

%s
---
%s
`, a.Name, intro, describe(a), e.domain)

	return e.Send(a.Email, subject, body)
}

// SendClinicNotification tells the clinic about a new submission.
func (e *EmailService) SendClinicNotification(to string, a *models.Appointment) error {
	subject := fmt.Sprintf("Jauns %s: %s", sourceLabel(a.Source), a.Name)
	body := fmt.Sprintf(`
Saņemts jauns %s.

%s
Vēlamais saziņas veids: %s

%s/admin
`, sourceLabel(a.Source), describe(a), a.ContactPreferences.Channel(), e.domain)

	return e.Send(to, subject, body)
}

func (e *EmailService) SendReminder(a *models.Appointment, message string) error {
	subject := "Atgādinājums par vizīti"
	body := fmt.Sprintf(`
Labdien, %s!

%s

%s
---
%s
`, a.Name, message, describe(a), e.domain)

	return e.Send(a.Email, subject, body)
}

func sourceLabel(source string) string {
	if source == models.SourceAppointment {
		return "pieraksts"
	}
	return "ziņojums"
}

func (e *EmailService) Send(to, subject, body string) error {
	if !e.Configured() {
		return ErrNotConfigured
	}

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", e.from, to, subject, body)

	var auth smtp.Auth
	if e.user != "" {
		auth = smtp.PlainAuth("", e.user, e.password, e.host)
	}
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := e.send(addr, auth, e.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
