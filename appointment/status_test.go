package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"klinika/models"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{models.StatusPending, models.StatusConfirmed},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusConfirmed, models.StatusCompleted},
		{models.StatusConfirmed, models.StatusCancelled},
		{models.StatusCompleted, models.StatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	rejected := [][2]string{
		{models.StatusCompleted, models.StatusPending},
		{models.StatusCancelled, models.StatusConfirmed},
		{models.StatusPending, models.StatusCompleted},
		{models.StatusCompleted, models.StatusCancelled},
	}
	for _, tr := range rejected {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestDecodeSubmission_Variants(t *testing.T) {
	sub, err := DecodeSubmission([]byte(`{"source":"appointment","name":"Jānis Bērziņš","date":"2025-03-10","time":"10:00"}`))
	assert.NoError(t, err)
	booking, ok := sub.(*BookingRequest)
	if assert.True(t, ok) {
		assert.Equal(t, "2025-03-10", booking.Date)
	}

	sub, err = DecodeSubmission([]byte(`{"source":"contact","date":"2025-03-10"}`))
	assert.NoError(t, err)
	assert.IsType(t, &ContactRequest{}, sub)
	assert.Nil(t, sub.Record().Date)

	_, err = DecodeSubmission([]byte(`{"source":`))
	assert.Error(t, err)

	_, err = DecodeSubmission([]byte(`{"source":"contact","name":42}`))
	assert.Error(t, err)
}
