package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"klinika/common"
	"klinika/models"
)

type fakeNotifier struct {
	mu        sync.Mutex
	created   []uint
	reminders []string
	createErr error
	remindErr error
}

func (f *fakeNotifier) NotifyCreated(_ context.Context, a *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a.ID)
	return nil
}

func (f *fakeNotifier) SendReminder(_ context.Context, a *models.Appointment, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remindErr != nil {
		return f.remindErr
	}
	f.reminders = append(f.reminders, message)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Appointment{}))
	return db
}

func setupTestRouter(db *gorm.DB, notifier Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Admin") == "1" {
			common.MarkAdmin(c, 1)
		}
		c.Next()
	})
	NewAppointmentModule(db, notifier, nil, nil).RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Test-Admin", "1")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

func bookingBody() map[string]any {
	return map[string]any{
		"name":               "Jānis Bērziņš",
		"phone":              "+371 2000 0000",
		"email":              "janis@example.lv",
		"service":            "Zobu balināšana",
		"date":               "2025-03-10",
		"time":               "10:00",
		"source":             "appointment",
		"contactPreferences": map[string]bool{"phone": true, "email": false},
	}
}

func contactBody() map[string]any {
	return map[string]any{
		"name":    "Līga Ozola",
		"phone":   "+371 2611 1111",
		"email":   "liga@example.lv",
		"message": "Vai pieņemat bērnus?",
		"source":  "contact",
	}
}

func TestBookingAndReminder(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	router := setupTestRouter(db, notifier)

	w := doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.SourceAppointment, created.Source)
	assert.True(t, created.EmailSent)
	assert.Nil(t, created.ReminderSent)
	require.NotNil(t, created.Date)
	assert.Equal(t, "2025-03-10", *created.Date)
	assert.Equal(t, []uint{created.ID}, notifier.created)

	w = doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{
		"appointmentId": created.ID,
		"message":       "Gaidām Jūs rīt!",
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Gaidām Jūs rīt!"}, notifier.reminders)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.NotNil(t, stored.ReminderSent)
	assert.WithinDuration(t, time.Now(), *stored.ReminderSent, time.Minute)
	assert.True(t, stored.EmailSent)
}

func TestContactSubmission_ReminderRejected(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	router := setupTestRouter(db, notifier)

	body := contactBody()
	body["date"] = "2025-03-10"
	w := doJSON(router, http.MethodPost, "/api/appointment", body, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.SourceContact, created.Source)
	assert.Nil(t, created.Date)
	assert.Nil(t, created.Time)

	w = doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{
		"appointmentId": created.ID,
		"message":       "Atgādinājums",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, notifier.reminders)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Nil(t, stored.ReminderSent)
}

func TestReminder_Errors(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	router := setupTestRouter(db, notifier)

	w := doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{"appointmentId": 999}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{"appointmentId": 1}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	notifier.remindErr = errors.New("twilio: 21211 invalid number")
	w = doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{"appointmentId": created.ID}, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Nil(t, stored.ReminderSent)

	require.NoError(t, db.Model(&stored).Update("status", models.StatusCancelled).Error)
	notifier.remindErr = nil
	w = doJSON(router, http.MethodPost, "/api/appointment/reminder", map[string]any{"appointmentId": created.ID}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_NotificationFailureStillStores(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{createErr: fmt.Errorf("%w: smtp down", common.ErrDispatch)})

	w := doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.False(t, created.EmailSent)
}

func TestCreate_Validation(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	tests := []struct {
		name  string
		edit  func(map[string]any)
		field string
	}{
		{"both preferences", func(b map[string]any) {
			b["contactPreferences"] = map[string]bool{"phone": true, "email": true}
		}, "contactPreferences"},
		{"missing date", func(b map[string]any) { delete(b, "date") }, "date"},
		{"bad date", func(b map[string]any) { b["date"] = "10.03.2025" }, "date"},
		{"bad time", func(b map[string]any) { b["time"] = "25:00" }, "time"},
		{"short name", func(b map[string]any) { b["name"] = "Jā" }, "name"},
		{"bad phone", func(b map[string]any) { b["phone"] = "123" }, "phone"},
		{"bad email", func(b map[string]any) { b["email"] = "janis..b@example.lv" }, "email"},
		{"unknown source", func(b map[string]any) { b["source"] = "walk-in" }, "source"},
		{"missing source", func(b map[string]any) { delete(b, "source") }, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bookingBody()
			tt.edit(body)
			w := doJSON(router, http.MethodPost, "/api/appointment", body, false)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Errors, tt.field)
		})
	}

	var count int64
	db.Model(&models.Appointment{}).Count(&count)
	assert.Zero(t, count)
}

func TestList_AdminOnlyWithFilters(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false).Code)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/appointment", contactBody(), false).Code)

	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodGet, "/api/appointment", nil, false).Code)

	w := doJSON(router, http.MethodGet, "/api/appointment", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, models.SourceContact, all[0].Source, "newest first")

	w = doJSON(router, http.MethodGet, "/api/appointment?source=appointment&status=pending", nil, true)
	var filtered []models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "Jānis Bērziņš", filtered[0].Name)

	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/api/appointment?status=lost", nil, true).Code)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	w := doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	put := func(status string) *httptest.ResponseRecorder {
		body := bookingBody()
		body["id"] = created.ID
		body["status"] = status
		body["notes"] = "Pacients lūdz zvanīt pēc 17:00"
		body["source"] = "contact"
		body["emailSent"] = false
		return doJSON(router, http.MethodPut, "/api/appointment", body, true)
	}

	w = put(models.StatusConfirmed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, "Pacients lūdz zvanīt pēc 17:00", updated.Notes)
	assert.Equal(t, models.SourceAppointment, updated.Source, "source is immutable")
	assert.True(t, updated.EmailSent, "emailSent is preserved")
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	assert.Equal(t, http.StatusBadRequest, put(models.StatusPending).Code)
	require.Equal(t, http.StatusOK, put(models.StatusCompleted).Code)
	assert.Equal(t, http.StatusBadRequest, put(models.StatusCancelled).Code)
	assert.Equal(t, http.StatusBadRequest, put("archived").Code)
}

func TestUpdate_Errors(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	body := bookingBody()
	body["id"] = 42
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodPut, "/api/appointment", body, true).Code)

	delete(body, "id")
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPut, "/api/appointment", body, true).Code)

	w := doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	body = bookingBody()
	body["time"] = ""
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/appointment/%d", created.ID), body, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = bookingBody()
	body["updatedAt"] = created.UpdatedAt.Add(-time.Hour)
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/appointment/%d", created.ID), body, true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdate_ContactFieldsCheckedOnBinding(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	w := doJSON(router, http.MethodPost, "/api/appointment", bookingBody(), false)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	body := bookingBody()
	body["name"] = "Jo"
	body["email"] = "janis..ozols@example.lv"
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/appointment/%d", created.ID), body, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Name must be at least 4 characters", resp.Errors["name"])
	assert.NotEmpty(t, resp.Errors["email"])
	assert.NotContains(t, resp.Errors, "phone")
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, &fakeNotifier{})

	w := doJSON(router, http.MethodPost, "/api/appointment", contactBody(), false)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodDelete, fmt.Sprintf("/api/appointment?id=%d", created.ID), nil, false).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodDelete, fmt.Sprintf("/api/appointment?id=%d", created.ID), nil, true).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, fmt.Sprintf("/api/appointment/%d", created.ID), nil, true).Code)
}
