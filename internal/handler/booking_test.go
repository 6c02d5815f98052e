package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/cinetick/booking/internal/booking"
	"github.com/cinetick/booking/internal/repository"
)

func recordCoreError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	assert.NoError(t, coreError(c, err))
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCoreErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no seats", booking.ErrNoSeats, http.StatusBadRequest},
		{"hold expired", booking.ErrHoldExpired, http.StatusGone},
		{"foreign hold or booking", booking.ErrNotAuthorized, http.StatusNotFound},
		{"not cancellable", booking.ErrBookingNotCancellable, http.StatusConflict},
		{"showtime closed", booking.ErrShowtimeNotBookable, http.StatusConflict},
		{"showtime missing", repository.ErrShowtimeNotFound, http.StatusNotFound},
		{"hold missing", repository.ErrHoldNotFound, http.StatusNotFound},
		{"booking missing", repository.ErrBookingNotFound, http.StatusNotFound},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := recordCoreError(t, tc.err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCoreErrorSeatsUnavailableListsSeats(t *testing.T) {
	rec, body := recordCoreError(t, &booking.SeatsUnavailableError{Seats: []string{"A2", "B9"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []interface{}{"A2", "B9"}, body["unavailable"])
}

func TestGetUserID(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{"float64 claim", float64(42), 42, false},
		{"string claim", "42", 42, false},
		{"uint64", uint64(42), 42, false},
		{"garbage string", "abc", 0, true},
		{"missing", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name    string
		param   string
		want    uint64
		wantErr bool
	}{
		{"valid", "7", 7, false},
		{"zero", "0", 0, true},
		{"non numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tc.param)
			got, err := pathID(c, "id")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
