// Package handler implements the HTTP handlers for the A-to-B API.
// All handlers are methods on Server. Methods are split into
// resource-specific files (auth.go, trip.go, step.go, ...) but share the
// same Server struct so they can reach its services.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/atob/apidocs"
	"github.com/pkordes/atob/internal/domain"
	"github.com/pkordes/atob/internal/middleware"
	"github.com/pkordes/atob/internal/service"
)

// AuthServicer is the account lifecycle the auth handlers depend on.
type AuthServicer interface {
	Register(ctx context.Context, in service.RegisterInput) (domain.User, error)
	ConfirmEmail(ctx context.Context, email, token string) error
	Login(ctx context.Context, login, password string) (service.AccessToken, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in service.ResetPasswordInput) error
}

// UserServicer serves the caller's own account and the contact form.
type UserServicer interface {
	Me(ctx context.Context) (domain.User, error)
	UpdateUsername(ctx context.Context, username string) (domain.User, error)
	UpdateEmail(ctx context.Context, email string) (domain.User, error)
	Contact(ctx context.Context, req domain.ContactRequest) error
}

// TripServicer defines the trip operations the trip handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListMine(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListAll(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StepServicer defines the itinerary operations on steps.
type StepServicer interface {
	AddLast(ctx context.Context, tripID uuid.UUID, step domain.Step) (domain.Step, error)
	AddBefore(ctx context.Context, tripID, targetID uuid.UUID, step domain.Step) (domain.Step, error)
	AddAfter(ctx context.Context, tripID, targetID uuid.UUID, step domain.Step) (domain.Step, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Step, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Step, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.StepPatch) (domain.Step, error)
	MoveToEnd(ctx context.Context, id uuid.UUID) (domain.Step, error)
	MoveBefore(ctx context.Context, id, targetID uuid.UUID) (domain.Step, error)
	MoveAfter(ctx context.Context, id, targetID uuid.UUID) (domain.Step, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TravelServicer defines the operations on travels between steps.
type TravelServicer interface {
	AddBetween(ctx context.Context, draft domain.TravelDraft) (domain.Travel, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Travel, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Travel, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TestimonialServicer defines the testimonial operations.
type TestimonialServicer interface {
	Create(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Testimonial, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Testimonial, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExportServicer flattens one trip for export.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// Services groups the dependencies of Server. Tests set only the fields
// the routes under test use.
type Services struct {
	Auth         AuthServicer
	Users        UserServicer
	Trips        TripServicer
	Steps        StepServicer
	Travels      TravelServicer
	Testimonials TestimonialServicer
	Export       ExportServicer
}

// Server holds the services behind every endpoint.
type Server struct {
	auth         AuthServicer
	users        UserServicer
	trips        TripServicer
	steps        StepServicer
	travels      TravelServicer
	testimonials TestimonialServicer
	export       ExportServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services) *Server {
	return &Server{
		auth:         svc.Auth,
		users:        svc.Users,
		trips:        svc.Trips,
		steps:        svc.Steps,
		travels:      svc.Travels,
		testimonials: svc.Testimonials,
		export:       svc.Export,
	}
}

// Routes mounts every endpoint on a chi router. authn guards the routes
// that need a caller; it is middleware.NewAuthenticator in production.
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/api/v1", func(r chi.Router) {
		// Public.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.Register)
			r.Post("/confirm-email", s.ConfirmEmail)
			r.Post("/login", s.Login)
			r.Post("/forgot-password", s.ForgotPassword)
			r.Post("/reset-password", s.ResetPassword)
		})
		r.Post("/contact", s.Contact)
		r.Get("/testimonials", s.ListTestimonials)
		r.Get("/testimonials/{testimonialId}", s.GetTestimonial)

		// Authenticated.
		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/users/me", s.GetMe)
			r.Patch("/users/me/username", s.UpdateUsername)
			r.Patch("/users/me/email", s.UpdateEmail)

			r.Post("/trips", s.CreateTrip)
			r.Get("/trips", s.ListTrips)
			r.Route("/trips/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
				r.Get("/export", s.ExportTrip)
				r.Get("/steps", s.ListSteps)
				r.Post("/steps", s.AddStep)
				r.Post("/steps/{stepId}/before", s.AddStepBefore)
				r.Post("/steps/{stepId}/after", s.AddStepAfter)
				r.Get("/travels", s.ListTravels)
			})

			r.Route("/steps/{stepId}", func(r chi.Router) {
				r.Get("/", s.GetStep)
				r.Patch("/", s.UpdateStep)
				r.Delete("/", s.DeleteStep)
				r.Patch("/move-end", s.MoveStepToEnd)
				r.Patch("/move-before/{targetStepId}", s.MoveStepBefore)
				r.Patch("/move-after/{targetStepId}", s.MoveStepAfter)
			})

			r.Post("/travels", s.CreateTravel)
			r.Get("/travels/{travelId}", s.GetTravel)
			r.Delete("/travels/{travelId}", s.DeleteTravel)

			r.Post("/testimonials", s.CreateTestimonial)
			r.Delete("/testimonials/{testimonialId}", s.DeleteTestimonial)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/trips", s.ListAllTrips)
				r.Get("/users/{userId}/trips", s.ListUserTrips)
			})
		})
	})
	return r
}

// serveOpenAPI handles GET /openapi.yaml.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(apidocs.OpenAPI)
}
