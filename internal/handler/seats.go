package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/repository"
)

// SeatHandler serves the public seat availability map.  The map is a
// point-in-time snapshot; a seat shown AVAILABLE can still lose the
// race when the client tries to hold it.
type SeatHandler struct {
	Ledger    *repository.SeatLedgerRepo
	Showtimes *repository.ShowtimeRepo
}

func NewSeatHandler(ledger *repository.SeatLedgerRepo, showtimes *repository.ShowtimeRepo) *SeatHandler {
	if ledger == nil || showtimes == nil {
		panic("nil dependency passed to NewSeatHandler")
	}
	return &SeatHandler{Ledger: ledger, Showtimes: showtimes}
}

// GetShowtimeSeats handles GET /v1/showtimes/:id/seats.  Hold and
// booking ownership is never exposed, only each seat's label, state
// and price.
func (h *SeatHandler) GetShowtimeSeats(c echo.Context) error {
	showtimeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if _, err := h.Showtimes.GetByID(c.Request().Context(), showtimeID); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Ledger.SeatMap(c.Request().Context(), showtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	items := make([]echo.Map, 0, len(seats))
	for _, s := range seats {
		items = append(items, echo.Map{
			"seat_label":  s.SeatLabel,
			"status":      s.Status,
			"price_cents": s.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": showtimeID,
		"seats":       items,
	})
}
