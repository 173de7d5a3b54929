package finance

import (
	"testing"

	"studiodesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	all := sampleBookings()
	all = append(all, models.Booking{ID: "5", Total: 100, Advance: 300, Date: daysAgo(1), Status: models.StatusCompleted})

	s := Summarize(all, today)
	assert.Equal(t, 5, s.TotalBookings)
	assert.Equal(t, 3, s.ActiveBookings)
	assert.Equal(t, 30000.0+8000+2500, s.OutstandingDue)
	assert.Equal(t, 20000.0+10000+0+500+300, s.CollectedAmount)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DueToday)
	assert.Equal(t, 1, s.Upcoming)
	require.Len(t, s.Recent, 5)
	assert.Equal(t, []string{"5", "4", "1", "2", "3"}, ids(s.Recent))
}

func TestUpcoming(t *testing.T) {
	base := CalendarDay(today)
	bookings := []models.Booking{
		{ID: "far", Date: base.AddDate(0, 0, 16), Status: models.StatusConfirmed},
		{ID: "edge", Date: base.AddDate(0, 0, 15), Status: models.StatusConfirmed},
		{ID: "today", Date: base, Status: models.StatusPending},
		{ID: "past", Date: base.AddDate(0, 0, -1), Status: models.StatusConfirmed},
		{ID: "cancelled", Date: base.AddDate(0, 0, 3), Status: models.StatusCancelled},
		{ID: "soon", Date: base.AddDate(0, 0, 3), Status: ""},
	}

	got := Upcoming(bookings, today, 0)
	assert.Equal(t, []string{"today", "soon", "edge"}, ids(got))
}
