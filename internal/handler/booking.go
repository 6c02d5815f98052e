package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/booking"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

// BookingHandler exposes the seat-booking core over HTTP: creating,
// inspecting, extending and releasing holds, finalizing them into
// bookings, and cancelling bookings.  JWT authentication runs before
// every method; the handler only translates between HTTP and the core's
// typed results.
type BookingHandler struct {
	Holds     *booking.HoldManager
	Finalizer *booking.Finalizer
	Bookings  *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(holds *booking.HoldManager, finalizer *booking.Finalizer, bookings *repository.BookingRepo) *BookingHandler {
	if holds == nil || finalizer == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Holds: holds, Finalizer: finalizer, Bookings: bookings}
}

// coreError translates the booking core's error taxonomy into an HTTP
// response.  Unavailability always carries the per-seat listing so the
// client can re-render exactly which selections failed.
func coreError(c echo.Context, err error) error {
	var unavailable *booking.SeatsUnavailableError
	if errors.As(err, &unavailable) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "seats unavailable",
			"unavailable": unavailable.Seats,
		})
	}
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "seat state conflict",
			"conflict": conflict.Seats,
		})
	}
	switch {
	case errors.Is(err, booking.ErrNoSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	case errors.Is(err, booking.ErrHoldExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
	case errors.Is(err, booking.ErrNotAuthorized):
		// Another requester's hold or booking is reported as absent so
		// the id space cannot be probed.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrBookingNotCancellable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking not cancellable"})
	case errors.Is(err, booking.ErrShowtimeNotBookable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime not open for booking"})
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, repository.ErrHoldNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// holdResponse is the JSON shape returned for a hold.
func holdResponse(h *model.Hold) echo.Map {
	return echo.Map{
		"hold_id":     h.ID,
		"showtime_id": h.ShowtimeID,
		"status":      h.Status,
		"seats":       h.SeatLabels(),
		"total_cents": h.TotalCents(),
		"expires_at":  h.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// bookingResponse is the JSON shape returned for a booking.
func bookingResponse(b *model.Booking) echo.Map {
	return echo.Map{
		"booking_id":         b.ID,
		"showtime_id":        b.ShowtimeID,
		"status":             b.Status,
		"seats":              b.SeatLabels(),
		"total_amount_cents": b.TotalAmountCents,
		"created_at":         b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// HoldSeats handles POST /v1/showtimes/:id/holds.  The request body
// carries a "seat_ids" array of seat labels.  On success it returns
// 201 with the hold and its expiry; when any seat is taken it returns
// 409 listing exactly the unavailable seats.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		SeatIDs []string `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	hold, err := h.Holds.CreateHold(c.Request().Context(), userID, showtimeID, body.SeatIDs)
	if err != nil {
		return coreError(c, err)
	}
	return c.JSON(http.StatusCreated, holdResponse(hold))
}

// GetHold handles GET /v1/holds/:id and returns the requester's hold,
// including its expiry for checkout countdowns.
func (h *BookingHandler) GetHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hold, err := h.Holds.GetHold(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return coreError(c, err)
	}
	return c.JSON(http.StatusOK, holdResponse(hold))
}

// ExtendHold handles POST /v1/holds/:id/extend.  It refreshes the
// hold's expiry by one TTL and returns the updated hold.
func (h *BookingHandler) ExtendHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hold, err := h.Holds.ExtendHold(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return coreError(c, err)
	}
	return c.JSON(http.StatusOK, holdResponse(hold))
}

// ReleaseHold handles DELETE /v1/holds/:id.  Releasing is idempotent:
// a hold that was already released, consumed or swept yields the same
// 204 as the first call.
func (h *BookingHandler) ReleaseHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Holds.ReleaseHold(c.Request().Context(), userID, c.Param("id")); err != nil {
		return coreError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// FinalizeHold handles POST /v1/holds/:id/finalize.  The body carries
// the payment confirmation reference from the payment collaborator.
// On success the hold's seats become BOOKED and the booking is
// returned with 201.
func (h *BookingHandler) FinalizeHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PaymentRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	}
	bk, err := h.Finalizer.Finalize(c.Request().Context(), userID, c.Param("id"), body.PaymentRef)
	if err != nil {
		return coreError(c, err)
	}
	return c.JSON(http.StatusCreated, bookingResponse(bk))
}

// ListBookings handles GET /v1/bookings and returns all bookings of
// the requester, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByRequester(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]echo.Map, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingResponse(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id.  Ownership is enforced: a
// booking belonging to another requester is reported as not found
// rather than leaking its existence.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bk, err := h.Bookings.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return coreError(c, err)
	}
	if bk.RequesterID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, bookingResponse(bk))
}

// CancelBooking handles DELETE /v1/bookings/:id.  Permitted only
// before the showtime starts; the booking's seats return to the pool.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Finalizer.Cancel(c.Request().Context(), userID, c.Param("id")); err != nil {
		return coreError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
