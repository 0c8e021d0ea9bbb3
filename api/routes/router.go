package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/instafit/fieldops-backend/api/controllers"
	"github.com/instafit/fieldops-backend/api/middleware"
	"github.com/instafit/fieldops-backend/internal/assignments"
	"github.com/instafit/fieldops-backend/internal/audit"
	"github.com/instafit/fieldops-backend/internal/auth"
	"github.com/instafit/fieldops-backend/internal/bookings"
	"github.com/instafit/fieldops-backend/internal/projections"
	"github.com/instafit/fieldops-backend/internal/workers"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/db"
	"github.com/instafit/fieldops-backend/pkg/enums"
	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/redis"
)

// NewRouter wires every HTTP route. redisClient and metricsHandler may be nil:
// login/fetch throttling and /metrics are then skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	authService auth.Service,
	fetcher controllers.BookingFetcher,
	bookingService bookings.Service,
	auditService audit.Service,
	workerService workers.Service,
	assignmentService assignments.Service,
	routeBuilder controllers.RouteBuilder,
	projectionService projections.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientIP,
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"database": dbP}
	fetchPolicy := middleware.NewRateLimitPolicy("fetch", cfg.RateLimit.FetchWindow, cfg.RateLimit.FetchLimit)
	loginPolicy := middleware.NewRateLimitPolicy("login", cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginLimit)
	fetchLimit := middleware.RateLimit(fetchPolicy, nil, logg)
	loginLimit := middleware.RateLimit(loginPolicy, nil, logg)
	if redisClient != nil {
		readiness["redis"] = redisClient
		fetchLimit = middleware.RateLimit(fetchPolicy, redisClient, logg)
		loginLimit = middleware.RateLimit(loginPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(loginLimit).Post("/auth/login", controllers.Login(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleOperator))

				r.Post("/auth/accounts", controllers.RegisterAccount(authService, logg))
				r.Get("/auth/check-phone", controllers.CheckPhone(authService, logg))

				r.Route("/bookings", func(r chi.Router) {
					r.With(fetchLimit).Post("/fetch", controllers.FetchBookings(fetcher, logg))
					r.Get("/submitted", controllers.SubmittedBookings(projectionService, logg))
					r.Get("/{bookingId}", controllers.GetBooking(bookingService, logg))
					r.Patch("/{bookingId}", controllers.UpdateBooking(bookingService, logg))
					r.Post("/{bookingId}/submit", controllers.SubmitBooking(bookingService, logg))
					r.Get("/{bookingId}/history", controllers.BookingHistory(bookingService, logg))
				})

				r.Get("/audit", controllers.SearchAudit(auditService, logg))

				r.Route("/workers", func(r chi.Router) {
					r.Get("/", controllers.ListWorkers(workerService, logg))
					r.Post("/", controllers.CreateWorker(workerService, logg))
					r.Patch("/{workerId}", controllers.UpdateWorker(workerService, logg))
				})

				r.Route("/assignments", func(r chi.Router) {
					r.Post("/", controllers.AssignBookings(assignmentService, logg))
					r.Post("/{bookingId}/address", controllers.UpdateBookingAddress(assignmentService, logg))
					r.Post("/{bookingId}/coordinates", controllers.UpdateBookingCoordinates(assignmentService, logg))
					r.Post("/{bookingId}/postcode", controllers.UpdateBookingPostcode(assignmentService, logg))
				})

				r.Route("/routes", func(r chi.Router) {
					r.Post("/", controllers.BuildRoute(routeBuilder, logg))
					r.Get("/{workerId}", controllers.GetRoute(projectionService, logg))
				})

				r.Route("/monitoring", func(r chi.Router) {
					r.Get("/jobs", controllers.MonitoringJobs(projectionService, logg))
					r.Post("/reassign", controllers.ReassignJob(assignmentService, logg))
				})
			})

			r.Route("/worker", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleWorker))
				r.Get("/jobs", controllers.WorkerJobs(projectionService, logg))
				r.Get("/day-plan", controllers.WorkerDayPlan(projectionService, nil, logg))
				r.Post("/jobs/{bookingId}/status", controllers.UpdateJobStatus(bookingService, logg))
			})
		})
	})

	return r
}
