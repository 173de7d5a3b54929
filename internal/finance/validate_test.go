package finance

import (
	"errors"
	"testing"
	"time"

	"studiodesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func validInput() models.BookingInput {
	return models.BookingInput{
		Name:               str("Asha Rao"),
		Address:            str("12 MG Road, Pune"),
		Mobile:             str("+91 98765 43210"),
		ServiceDescription: str("Wedding shoot"),
		Date:               str("2024-05-31"),
		Total:              str("50000"),
		Advance:            str("20000"),
	}
}

func TestValidateCreate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b, err := ValidateCreate(validInput())
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", b.Name)
		assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), b.Date)
		assert.Equal(t, 50000.0, b.Total)
		assert.Equal(t, 20000.0, b.Advance)
		assert.Equal(t, models.StatusConfirmed, b.Status)
	})

	t.Run("advance optional", func(t *testing.T) {
		in := validInput()
		in.Advance = nil
		b, err := ValidateCreate(in)
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.Advance)
	})

	t.Run("advance above total allowed", func(t *testing.T) {
		in := validInput()
		in.Advance = str("60000")
		_, err := ValidateCreate(in)
		assert.NoError(t, err)
	})

	t.Run("missing and malformed fields", func(t *testing.T) {
		in := validInput()
		in.Name = str("  ")
		in.Mobile = nil
		in.Date = str("31/05/2024")
		in.Total = str("-5")
		in.Advance = str("lots")

		_, err := ValidateCreate(in)
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		fields := verrs.Fields()
		assert.Contains(t, fields, FieldName)
		assert.Contains(t, fields, FieldMobile)
		assert.Contains(t, fields, FieldDate)
		assert.Equal(t, "must not be negative", fields[FieldTotal])
		assert.Equal(t, "must be a number", fields[FieldAdvance])
	})

	t.Run("terminal status rejected", func(t *testing.T) {
		in := validInput()
		in.Status = str(models.StatusCompleted)
		_, err := ValidateCreate(in)
		assert.True(t, IsValidation(err))
	})
}

func TestValidateEdit(t *testing.T) {
	current := models.Booking{Name: "Asha", Total: 1000, Advance: 100, Status: models.StatusConfirmed}

	t.Run("partial patch", func(t *testing.T) {
		patch, err := ValidateEdit(current, models.BookingInput{Advance: str("400"), Notes: str(" paid by upi ")})
		require.NoError(t, err)
		require.NotNil(t, patch.Advance)
		assert.Equal(t, 400.0, *patch.Advance)
		assert.Equal(t, "paid by upi", *patch.Notes)
		assert.Nil(t, patch.Total)
		assert.Nil(t, patch.Name)
	})

	t.Run("cleared advance becomes zero", func(t *testing.T) {
		patch, err := ValidateEdit(current, models.BookingInput{Advance: str("")})
		require.NoError(t, err)
		assert.Equal(t, 0.0, *patch.Advance)
	})

	t.Run("required field emptied", func(t *testing.T) {
		_, err := ValidateEdit(current, models.BookingInput{Name: str(""), Total: str("")})
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
	})

	t.Run("status change refused", func(t *testing.T) {
		_, err := ValidateEdit(current, models.BookingInput{Status: str(models.StatusCompleted)})
		assert.True(t, IsValidation(err))
	})

	t.Run("terminal booking is immutable", func(t *testing.T) {
		done := current
		done.Status = models.StatusCompleted
		_, err := ValidateEdit(done, models.BookingInput{Notes: str("late")})
		assert.ErrorIs(t, err, ErrTerminalStatus)
	})
}
