package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"rsvpdesk/internal/delivery/http/controllers"
	"rsvpdesk/internal/delivery/http/middleware"
	"rsvpdesk/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	rsvpController *controllers.RSVPController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Public routes
	mux.HandleFunc("GET /events", eventController.ListPublicEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events/{eventID}/rsvps", rsvpController.SubmitRSVP)

	// Organizer routes
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("GET /my/events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}/rsvps", auth(rsvpController.ListEventRSVPs))
	mux.HandleFunc("GET /events/{eventID}/rsvps/export", auth(rsvpController.ExportEventRSVPs))
	mux.HandleFunc("POST /events/{eventID}/rsvps/demo", auth(rsvpController.SeedDemoRSVPs))
	mux.HandleFunc("PATCH /rsvps/{rsvpID}", auth(rsvpController.UpdateRSVPStatus))
	mux.HandleFunc("DELETE /rsvps/{rsvpID}", auth(rsvpController.DeleteRSVP))

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
