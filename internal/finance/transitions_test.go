package finance

import (
	"testing"

	"studiodesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransition(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		action  string
		want    string
		wantErr error
	}{
		{"cancel confirmed", models.StatusConfirmed, ActionCancel, models.StatusCancelled, nil},
		{"cancel pending", models.StatusPending, ActionCancel, models.StatusCancelled, nil},
		{"cancel without status", "", ActionCancel, models.StatusCancelled, nil},
		{"complete confirmed", models.StatusConfirmed, ActionComplete, models.StatusCompleted, nil},
		{"confirm pending", models.StatusPending, ActionConfirm, models.StatusConfirmed, nil},
		{"confirm confirmed", models.StatusConfirmed, ActionConfirm, "", ErrInvalidTransition},
		{"cancel cancelled", models.StatusCancelled, ActionCancel, "", ErrTerminalStatus},
		{"complete cancelled", models.StatusCancelled, ActionComplete, "", ErrTerminalStatus},
		{"complete completed", models.StatusCompleted, ActionComplete, "", ErrTerminalStatus},
		{"cancel completed", models.StatusCompleted, ActionCancel, "", ErrTerminalStatus},
		{"unknown action", models.StatusPending, "archive", "", ErrUnknownAction},
		{"edit is not a status change", models.StatusPending, ActionEdit, "", ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ApplyTransition(models.Booking{Status: tt.status}, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, patch.IsEmpty())
				return
			}
			require.NoError(t, err)
			require.NotNil(t, patch.Status)
			assert.Equal(t, tt.want, *patch.Status)
		})
	}
}

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(ActionEdit, models.StatusConfirmed))
	assert.False(t, ValidTransition(ActionEdit, models.StatusCompleted))
	assert.False(t, ValidTransition("nope", models.StatusPending))
}
