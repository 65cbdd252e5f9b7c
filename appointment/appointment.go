package appointment

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/content"
	"klinika/crud"
	"klinika/models"
	"klinika/validation"
)

const defaultReminder = "Atgādinām par Jūsu vizīti mūsu klīnikā."

type AppointmentModule struct {
	store    *content.Store[models.Appointment, *models.Appointment]
	notifier Notifier
	limit    gin.HandlerFunc
	log      *zap.Logger
	now      func() time.Time
}

// NewAppointmentModule wires the booking endpoints. limit guards public submissions and may be nil.
func NewAppointmentModule(db *gorm.DB, notifier Notifier, limit gin.HandlerFunc, log *zap.Logger) *AppointmentModule {
	if log == nil {
		log = zap.NewNop()
	}
	validation.Setup()
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	return &AppointmentModule{
		store:    content.NewStore[models.Appointment](db),
		notifier: notifier,
		limit:    limit,
		log:      log,
		now:      time.Now,
	}
}

func (m *AppointmentModule) RegisterRoutes(router gin.IRouter) {
	g := router.Group("/api/appointment")
	g.POST("", m.limit, m.create)
	g.GET("", common.RequireAdmin, m.list)
	g.GET("/:id", common.RequireAdmin, m.get)
	g.PUT("", common.RequireAdmin, m.update)
	g.PUT("/:id", common.RequireAdmin, m.update)
	g.DELETE("", common.RequireAdmin, m.remove)
	g.DELETE("/:id", common.RequireAdmin, m.remove)
	g.POST("/reminder", common.RequireAdmin, m.reminder)
}

func idParam(c *gin.Context) (uint, bool, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	if raw == "" {
		return 0, false, true
	}
	id, ok := crud.ParseID(raw)
	return id, true, ok
}

func (m *AppointmentModule) create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		common.BadRequest(c, "body", "could not read request body")
		return
	}
	sub, err := DecodeSubmission(raw)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if errs := sub.Validate(); errs != nil {
		common.RespondError(c, errs)
		return
	}

	ctx := c.Request.Context()
	rec := sub.Record()
	if err := m.store.Create(ctx, rec); err != nil {
		common.RespondError(c, err)
		return
	}

	if m.notifier != nil {
		if err := m.notifier.NotifyCreated(ctx, rec); err != nil {
			m.log.Warn("appointment notification failed", zap.Uint("id", rec.ID), zap.Error(err))
		} else if err := m.store.UpdateColumns(ctx, rec.ID, map[string]any{"email_sent": true}); err != nil {
			m.log.Error("could not mark email as sent", zap.Uint("id", rec.ID), zap.Error(err))
		} else {
			rec.EmailSent = true
		}
	}

	m.log.Info("appointment received",
		zap.Uint("id", rec.ID),
		zap.String("source", rec.Source),
		zap.Bool("emailSent", rec.EmailSent),
	)
	c.JSON(http.StatusCreated, rec)
}

func (m *AppointmentModule) list(c *gin.Context) {
	if _, present, _ := idParam(c); present {
		m.get(c)
		return
	}

	opts := content.ListOptions{Order: "created_at DESC, id DESC"}
	if status := c.Query("status"); status != "" {
		if !ValidStatus(status) {
			common.BadRequest(c, "status", "must be one of: pending confirmed cancelled completed")
			return
		}
		opts.Scopes = append(opts.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", status)
		})
	}
	if source := c.Query("source"); source != "" {
		if source != models.SourceAppointment && source != models.SourceContact {
			common.BadRequest(c, "source", "must be one of: appointment contact")
			return
		}
		opts.Scopes = append(opts.Scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("source = ?", source)
		})
	}
	limit, ok := crud.ParseLimit(c)
	if !ok {
		common.BadRequest(c, "limit", "must be a non-negative integer")
		return
	}
	opts.Limit = limit

	items, err := m.store.List(c.Request.Context(), opts)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (m *AppointmentModule) get(c *gin.Context) {
	id, _, ok := idParam(c)
	if !ok {
		common.BadRequest(c, "id", "must be a positive integer")
		return
	}
	m.respond(c, id)
}

type updateRequest struct {
	ID uint `json:"id"`
	Contact
	Date      *string   `json:"date"`
	Time      *string   `json:"time"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// update replaces the editable fields. Source, emailSent and reminderSent are kept from the stored row.
func (m *AppointmentModule) update(c *gin.Context) {
	id, present, ok := idParam(c)
	if !ok {
		common.BadRequest(c, "id", "must be a positive integer")
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, validation.FromBinding(err))
		return
	}
	if !present {
		id = req.ID
	}
	if id == 0 {
		common.BadRequest(c, "id", "is required")
		return
	}

	var expected *time.Time
	if !req.UpdatedAt.IsZero() {
		expected = &req.UpdatedAt
	}

	ctx := c.Request.Context()
	err := m.store.Transaction(ctx, func(tx *content.Store[models.Appointment, *models.Appointment]) error {
		existing, err := tx.Get(ctx, id, content.ListOptions{})
		if err != nil {
			return err
		}

		sub := submissionFor(existing.Source, req.Contact, req.Date, req.Time)
		errs := validation.FieldErrors{}
		errs.Merge("", sub.Validate().Err())

		status := strings.TrimSpace(req.Status)
		if status == "" {
			status = existing.Status
		}
		switch {
		case !ValidStatus(status):
			errs.Add("status", "must be one of: pending confirmed cancelled completed")
		case !CanTransition(existing.Status, status):
			errs.Add("status", "cannot change from "+existing.Status+" to "+status)
		}
		if err := errs.Err(); err != nil {
			return err
		}

		rec := sub.Record()
		rec.ID = existing.ID
		rec.Status = status
		rec.Notes = strings.TrimSpace(req.Notes)
		rec.Source = existing.Source
		rec.EmailSent = existing.EmailSent
		rec.ReminderSent = existing.ReminderSent
		return tx.Replace(ctx, rec, expected)
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	m.respond(c, id)
}

func (m *AppointmentModule) remove(c *gin.Context) {
	id, _, ok := idParam(c)
	if !ok {
		common.BadRequest(c, "id", "must be a positive integer")
		return
	}
	if err := m.store.Delete(c.Request.Context(), id); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "id": id})
}

type reminderRequest struct {
	AppointmentID uint   `json:"appointmentId" binding:"required"`
	Message       string `json:"message" binding:"max=1000"`
}

func (m *AppointmentModule) reminder(c *gin.Context) {
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, validation.FromBinding(err))
		return
	}

	ctx := c.Request.Context()
	rec, err := m.store.Get(ctx, req.AppointmentID, content.ListOptions{})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if !rec.CanRemind() {
		common.BadRequest(c, "appointmentId", "reminders are only available for bookings with a date and time")
		return
	}
	if !Remindable(rec.Status) {
		common.BadRequest(c, "appointmentId", "reminders cannot be sent for "+rec.Status+" appointments")
		return
	}
	if m.notifier == nil {
		common.RespondError(c, common.ErrDispatch)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = defaultReminder
	}
	if err := m.notifier.SendReminder(ctx, rec, message); err != nil {
		m.log.Warn("reminder failed", zap.Uint("id", rec.ID), zap.Error(err))
		if !errors.Is(err, common.ErrDispatch) {
			err = fmt.Errorf("%w: %v", common.ErrDispatch, err)
		}
		common.RespondError(c, err)
		return
	}

	sent := m.now()
	if err := m.store.UpdateColumns(ctx, rec.ID, map[string]any{"reminder_sent": sent}); err != nil {
		common.RespondError(c, err)
		return
	}
	rec.ReminderSent = &sent

	m.log.Info("reminder sent", zap.Uint("id", rec.ID), zap.String("channel", rec.ContactPreferences.Channel()))
	c.JSON(http.StatusOK, gin.H{"message": "Reminder sent", "appointment": rec})
}

func (m *AppointmentModule) respond(c *gin.Context, id uint) {
	rec, err := m.store.Get(c.Request.Context(), id, content.ListOptions{})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
