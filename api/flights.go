package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/airkorea/flightdesk/internal/service/flights"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin panel command. Routes registered through it
// must already be behind the admin role middleware.
type AdminHandler struct {
	service flights.FlightUseCase
}

func NewAdminHandler(service flights.FlightUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.panel)
	router.GET("/actions", h.suggestActions)
}

type adminPanelRequest struct {
	Action     string `json:"action" binding:"required"`
	FlightCode string `json:"flight_code"`
	Route      string `json:"route"`
	Aircraft   string `json:"aircraft"`
	Spots      *int   `json:"spots"`
	Departure  string `json:"departure"`
	Timezone   string `json:"timezone"`
}

func (h *AdminHandler) panel(c *gin.Context) {
	var req adminPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := flights.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch action {
	case flights.ActionAdd:
		h.add(c, req)
	case flights.ActionDelete:
		h.delete(c, req)
	case flights.ActionList:
		h.list(c)
	case flights.ActionPassengers:
		h.passengers(c, req)
	}
}

func (h *AdminHandler) add(c *gin.Context, req adminPanelRequest) {
	spots := 0
	if req.Spots != nil {
		spots = *req.Spots
	}

	status, err := h.service.AddFlight(c.Request.Context(), flights.AddFlightInput{
		Code:      req.FlightCode,
		Route:     req.Route,
		Aircraft:  req.Aircraft,
		Spots:     spots,
		Departure: req.Departure,
		Timezone:  req.Timezone,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Flight %s added successfully!", status.Code),
		"flight":  status,
	})
}

func (h *AdminHandler) delete(c *gin.Context, req adminPanelRequest) {
	if req.FlightCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a flight_code to delete"})
		return
	}

	if err := h.service.DeleteFlight(c.Request.Context(), req.FlightCode); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Flight %s deleted successfully!", req.FlightCode)})
}

func (h *AdminHandler) list(c *gin.Context) {
	all, err := h.service.ListFlights(c.Request.Context())
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if len(all) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No flights available."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": all})
}

func (h *AdminHandler) passengers(c *gin.Context, req adminPanelRequest) {
	if req.FlightCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a flight_code to view passengers"})
		return
	}

	manifest, err := h.service.Passengers(c.Request.Context(), req.FlightCode)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if manifest.Total == 0 {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Flight %s has no passengers yet.", req.FlightCode)})
		return
	}
	c.JSON(http.StatusOK, manifest)
}

func (h *AdminHandler) suggestActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": flights.SuggestActions(c.Query("current"))})
}

func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, flights.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
