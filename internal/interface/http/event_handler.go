package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/interface/middleware"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/response"
)

type EventHandler struct {
	Svc    *application.EventService
	Logger *logrus.Logger
}

func NewEventHandler(svc *application.EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{Svc: svc, Logger: logger}
}

type listResponse struct {
	Success     bool        `json:"success"`
	Count       int         `json:"count"`
	Total       int64       `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Data        []eventJSON `json:"data"`
}

type rsvpResponse struct {
	Success bool      `json:"success"`
	RSVPd   bool      `json:"rsvpd"`
	Message string    `json:"message"`
	Data    eventJSON `json:"data"`
}

// queryInt returns the integer value of query key, or 0 when absent or malformed.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// List GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	page, err := h.Svc.List(c.Request.Context(), application.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Faculty:  c.Query("faculty"),
		Date:     c.Query("date"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error fetching events.")
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Success:     true,
		Count:       len(page.Items),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Data:        toEventsJSON(page.Items),
	})
}

// Get GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error fetching event.")
		return
	}
	response.Success(c, http.StatusOK, toEventJSON(ev), "")
}

// Create POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req application.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	ev, err := h.Svc.Create(c.Request.Context(), req, c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error creating event.")
		return
	}
	response.Success(c, http.StatusCreated, toEventJSON(ev), "")
}

// Update PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	var req application.EventPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	ev, err := h.Svc.Update(c.Request.Context(), c.Param("id"), req, c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err, "Not authorised to edit this event.", "Server error updating event.")
		return
	}
	response.Success(c, http.StatusOK, toEventJSON(ev), "")
}

// Delete DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err, "Not authorised to delete this event.", "Server error deleting event.")
		return
	}
	response.Message(c, http.StatusOK, "Event deleted successfully.")
}

// ToggleRSVP POST /api/events/:id/rsvp
func (h *EventHandler) ToggleRSVP(c *gin.Context) {
	ev, joined, err := h.Svc.ToggleRSVP(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err, "", "Server error processing RSVP.")
		return
	}
	msg := "RSVP cancelled."
	if joined {
		msg = "RSVP confirmed!"
	}
	c.JSON(http.StatusOK, rsvpResponse{Success: true, RSVPd: joined, Message: msg, Data: toEventJSON(ev)})
}
