package api

import (
	"errors"
	"net/http"

	"github.com/airkorea/flightdesk/internal/domain"
	"github.com/airkorea/flightdesk/internal/service/booking"
	"github.com/airkorea/flightdesk/internal/session"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.start)
	router.POST("/:id/flight", h.selectFlight)
	router.POST("/:id/passenger", h.choosePassenger)
	router.POST("/:id/identity", h.submitIdentity)
	router.POST("/:id/cabin", h.selectCabin)
}

type selectFlightRequest struct {
	FlightCode string `json:"flight_code" binding:"required"`
}

type choosePassengerRequest struct {
	// Target is "myself" or "someone_else".
	Target string `json:"target" binding:"required"`
}

type identityRequest struct {
	RobloxUsername string `json:"roblox_username" binding:"required"`
	DiscordID      string `json:"discord_id"`
}

type cabinRequest struct {
	CabinClass string `json:"cabin_class" binding:"required"`
}

func (h *BookingHandler) start(c *gin.Context) {
	flow, err := h.service.StartFlow(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flow)
}

func (h *BookingHandler) selectFlight(c *gin.Context) {
	var req selectFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.SelectFlight(c.Request.Context(), c.Param("id"), actorID(c), req.FlightCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *BookingHandler) choosePassenger(c *gin.Context) {
	var req choosePassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var forOther bool
	switch req.Target {
	case "myself":
		forOther = false
	case "someone_else":
		forOther = true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "target must be myself or someone_else"})
		return
	}

	sess, err := h.service.ChoosePassenger(c.Request.Context(), c.Param("id"), actorID(c), forOther)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *BookingHandler) submitIdentity(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.SubmitIdentity(c.Request.Context(), c.Param("id"), actorID(c), booking.IdentityInput{
		RobloxUsername: req.RobloxUsername,
		PassengerID:    req.DiscordID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *BookingHandler) selectCabin(c *gin.Context) {
	var req cabinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmation, err := h.service.SelectCabin(c.Request.Context(), c.Param("id"), actorID(c), domain.CabinClass(req.CabinClass))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotYourBooking):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNoSpotsLeft):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNoFlights),
		errors.Is(err, booking.ErrWrongStep),
		errors.Is(err, booking.ErrInvalidPassengerID),
		errors.Is(err, booking.ErrInvalidUsername),
		errors.Is(err, booking.ErrInvalidCabinClass):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
