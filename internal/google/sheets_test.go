package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studiodesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func setupMockServer(t *testing.T) (*http.ServeMux, *SheetsService) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	s := newSheetsService(srv, "bookings_tid", "Bookings", nil)
	s.now = func() time.Time { return fixedNow }
	return mux, s
}

func columnA(ids ...string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		values := [][]interface{}{{"ID"}}
		for _, id := range ids {
			values = append(values, []interface{}{id})
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: values})
	}
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:                 "b-1",
		BookingNumber:      "BK-1",
		Name:               "Nila",
		Mobile:             "9000000000",
		Address:            "Adyar",
		ServiceDescription: "Event coverage",
		Date:               time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		Total:              12000,
		Advance:            2000,
		Status:             models.StatusConfirmed,
		CreatedAt:          fixedNow,
		UpdatedAt:          fixedNow,
	}
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", columnA("b-1", "b-2"))

	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow("b-2")
	assert.True(t, ok)
	assert.Equal(t, 3, row)
	_, ok = s.getCachedRow("ID")
	assert.False(t, ok, "header is not a booking")
}

func TestSheetsService_UpsertAppendsUnknownBooking(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", columnA("other"))

	var appended sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &appended)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), sampleBooking()))
	require.Len(t, appended.Values, 1)
	row := appended.Values[0]
	require.Len(t, row, len(bookingHeaders))
	assert.Equal(t, "b-1", row[0])
	assert.Equal(t, "2024-05-20", row[6])
	assert.EqualValues(t, 10000, row[9])
	assert.Equal(t, "pending", row[10])
}

func TestSheetsService_UpsertUpdatesExistingRow(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", columnA("b-0", "b-1"))

	called := false
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A3:N3", func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodPut
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), sampleBooking()))
	assert.True(t, called)
}

func TestSheetsService_UpdateBookingStatus(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow("b-1", 4)

	var req sheets.BatchUpdateValuesRequest
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values:batchUpdate", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		_ = json.NewEncoder(w).Encode(sheets.BatchUpdateValuesResponse{})
	})

	require.NoError(t, s.UpdateBookingStatus(context.Background(), "b-1", models.StatusCancelled))
	require.Len(t, req.Data, 2)
	assert.Equal(t, "Bookings!L4", req.Data[0].Range)
	assert.Equal(t, models.StatusCancelled, req.Data[0].Values[0][0])
	assert.Equal(t, "Bookings!N4", req.Data[1].Range)
}

func TestSheetsService_DeleteBookingRow(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow("b-1", 2)

	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:N2:clear", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})

	require.NoError(t, s.DeleteBookingRow(context.Background(), "b-1"))
	_, ok := s.getCachedRow("b-1")
	assert.False(t, ok)
}

func TestSheetsService_DeleteMissingRowIsNoop(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", columnA())

	assert.NoError(t, s.DeleteBookingRow(context.Background(), "ghost"))
}

func TestSheetsService_FindBookingRowErrors(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.FindBookingRow(context.Background(), "")
	assert.Error(t, err)

	_, err = s.FindBookingRow(context.Background(), "b-1")
	assert.Error(t, err)
	assert.Error(t, s.UpdateBookingStatus(context.Background(), "b-1", "cancelled"))
}
