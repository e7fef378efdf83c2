package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "rsvpdesk/internal/delivery/http/helpers"
	"rsvpdesk/internal/delivery/http/middleware"
	"rsvpdesk/internal/domain"
)

// SubmitRSVPRequest is the request body for POST /events/{eventID}/rsvps
type SubmitRSVPRequest struct {
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Status              string  `json:"status"`
	Guests              int     `json:"guests"`
	DietaryRestrictions *string `json:"dietary_restrictions"`
}

// Validate implements Validator.
func (s SubmitRSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if !domain.RSVPStatus(s.Status).Valid() {
		errs = append(errs, "status must be one of attending, maybe, declined")
	}
	if s.Guests < 0 {
		errs = append(errs, "guests must be zero or greater")
	}
	return errs
}

// UpdateRSVPStatusRequest is the request body for PATCH /rsvps/{rsvpID}
type UpdateRSVPStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (u UpdateRSVPStatusRequest) Validate() []string {
	var errs []string
	if !domain.RSVPStatus(u.Status).Valid() {
		errs = append(errs, "status must be one of attending, maybe, declined")
	}
	return errs
}

// SubmitRSVPResponse bundles the stored RSVP with the event's capacity after admission.
type SubmitRSVPResponse struct {
	RSVP     *domain.RSVP          `json:"rsvp"`
	Capacity *domain.EventCapacity `json:"capacity"`
}

type RSVPController struct {
	Logger       *slog.Logger
	Service      domain.RSVPService
	EventService domain.EventService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService, eventSvc domain.EventService) *RSVPController {
	return &RSVPController{
		Logger:       logger,
		Service:      svc,
		EventService: eventSvc,
	}
}

// SubmitRSVP godoc
// @Summary Submit an RSVP
// @Description Submit a public response to an event. One response per email per event. Attending responses are admitted only while seats remain; losing the race for the last seat returns event_full.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID" format(uuid)
// @Param body body SubmitRSVPRequest true "RSVP data"
// @Success 201 {object} helpers.APIResponse "data contains the RSVP and the updated capacity"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_rsvp or event_full"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [post]
func (c *RSVPController) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event ID format")
		return
	}
	var req SubmitRSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	rsvp, capacity, err := c.Service.SubmitRSVP(r.Context(), eventID, req.Name, req.Email, domain.RSVPStatus(req.Status), req.Guests, req.DietaryRestrictions)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrDuplicateRSVP):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeDuplicateRSVP, "this email has already responded to the event")
		case errors.Is(err, domain.ErrEventFull):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeEventFull, "event is fully booked")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}

	h.WriteJSONSuccess(w, http.StatusCreated, SubmitRSVPResponse{RSVP: rsvp, Capacity: capacity})
}

// ListEventRSVPs godoc
// @Summary List event RSVPs
// @Description List all responses to an event, newest first, optionally filtered by status or a name/email search term. Only the event owner may call this.
// @Tags rsvps
// @Produce json
// @Param eventID path string true "Event ID" format(uuid)
// @Param status query string false "Filter by status: attending, maybe, or declined"
// @Param search query string false "Case-insensitive match against name or email"
// @Success 200 {object} helpers.APIResponse "data contains the RSVPs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Security BearerAuth
// @Router /events/{eventID}/rsvps [get]
func (c *RSVPController) ListEventRSVPs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event ID format")
		return
	}
	filter := domain.RSVPListFilter{
		Status: domain.RSVPStatus(r.URL.Query().Get("status")),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	rsvps, err := c.Service.ListEventRSVPs(r.Context(), eventID, userID, filter)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}

	h.WriteJSONSuccess(w, http.StatusOK, rsvps)
}

// ExportEventRSVPs godoc
// @Summary Export event RSVPs as CSV
// @Description Download all responses to an event as a UTF-8 CSV file with localized headers and status labels. Only the event owner may call this.
// @Tags rsvps
// @Produce text/csv
// @Param eventID path string true "Event ID" format(uuid)
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Security BearerAuth
// @Router /events/{eventID}/rsvps/export [get]
func (c *RSVPController) ExportEventRSVPs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event ID format")
		return
	}
	event, _, err := c.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	rsvps, err := c.Service.ListEventRSVPs(r.Context(), eventID, userID, domain.RSVPListFilter{})
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	if err := h.WriteRSVPsCSV(w, h.ExportFilename(event.Title, time.Now()), rsvps); err != nil {
		c.Logger.ErrorContext(r.Context(), "csv export failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
}

// UpdateRSVPStatus godoc
// @Summary Update an RSVP's status
// @Description Change a response's status. Only the owning event's organizer may call this. Promoting to attending is allowed even when the event is full.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param rsvpID path string true "RSVP ID" format(uuid)
// @Param body body UpdateRSVPStatusRequest true "New status"
// @Success 200 {object} helpers.APIResponse "data contains the updated RSVP"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Security BearerAuth
// @Router /rsvps/{rsvpID} [patch]
func (c *RSVPController) UpdateRSVPStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	rsvpID := r.PathValue("rsvpID")
	if !uuidRegex.MatchString(rsvpID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid RSVP ID format")
		return
	}
	var req UpdateRSVPStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	rsvp, err := c.Service.UpdateRSVPStatus(r.Context(), rsvpID, userID, domain.RSVPStatus(req.Status))
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}

	h.WriteJSONSuccess(w, http.StatusOK, rsvp)
}

// DeleteRSVP godoc
// @Summary Delete an RSVP
// @Description Remove a response from an event, freeing its seat if it was attending. Only the owning event's organizer may call this.
// @Tags rsvps
// @Produce json
// @Param rsvpID path string true "RSVP ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Security BearerAuth
// @Router /rsvps/{rsvpID} [delete]
func (c *RSVPController) DeleteRSVP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	rsvpID := r.PathValue("rsvpID")
	if !uuidRegex.MatchString(rsvpID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid RSVP ID format")
		return
	}
	if err := c.Service.DeleteRSVP(r.Context(), rsvpID, userID); err != nil {
		c.writeRSVPError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SeedDemoRSVPs godoc
// @Summary Seed demo RSVPs
// @Description Generate sample responses for an event without exceeding remaining capacity. Only the event owner may call this.
// @Tags rsvps
// @Produce json
// @Param eventID path string true "Event ID" format(uuid)
// @Success 201 {object} helpers.APIResponse "data contains the created RSVPs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_full"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Security BearerAuth
// @Router /events/{eventID}/rsvps/demo [post]
func (c *RSVPController) SeedDemoRSVPs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event ID format")
		return
	}
	rsvps, err := c.Service.SeedDemoRSVPs(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrEventFull) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeEventFull, "event is fully booked")
			return
		}
		c.writeRSVPError(w, r, err)
		return
	}

	h.WriteJSONSuccess(w, http.StatusCreated, rsvps)
}

// writeRSVPError maps common service errors for RSVP operations to API responses.
func (c *RSVPController) writeRSVPError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "you do not own this event")
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "not found")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}
