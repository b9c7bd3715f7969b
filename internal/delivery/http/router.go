package http

import (
	"net/http"

	"go-telehealth-booking/internal/delivery/http/handler"
	"go-telehealth-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	doctorHandler       *handler.DoctorHandler
	patientHandler      *handler.PatientHandler
	bookingHandler      *handler.BookingHandler
	appointmentHandler  *handler.AppointmentHandler
	prescriptionHandler *handler.PrescriptionHandler
	adminHandler        *handler.AdminHandler
	scheduleHandler     *handler.ScheduleHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	metricsMiddleware   *middleware.MetricsMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	patientHandler *handler.PatientHandler,
	bookingHandler *handler.BookingHandler,
	appointmentHandler *handler.AppointmentHandler,
	prescriptionHandler *handler.PrescriptionHandler,
	adminHandler *handler.AdminHandler,
	scheduleHandler *handler.ScheduleHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		doctorHandler:       doctorHandler,
		patientHandler:      patientHandler,
		bookingHandler:      bookingHandler,
		appointmentHandler:  appointmentHandler,
		prescriptionHandler: prescriptionHandler,
		adminHandler:        adminHandler,
		scheduleHandler:     scheduleHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		metricsMiddleware:   metricsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check and metrics
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	r.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", r.authHandler.Signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/verify-email/{token}", r.authHandler.VerifyEmail).Methods(http.MethodGet)
	auth.HandleFunc("/forgot-password", r.authHandler.ForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password/{token}", r.authHandler.ResetPassword).Methods(http.MethodPut)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctor directory and self-service
	doctors := api.PathPrefix("/doctors").Subrouter()
	doctors.Use(r.authMiddleware.Authenticate)
	doctors.HandleFunc("", r.doctorHandler.ListVerified).Methods(http.MethodGet)
	doctors.HandleFunc("/{id}/slots", r.bookingHandler.GetAvailableSlots).Methods(http.MethodGet)
	doctors.Handle("/me/profile", middleware.RequireDoctor(http.HandlerFunc(r.doctorHandler.CompleteProfile))).Methods(http.MethodPut)

	// Patient self-service
	patients := api.PathPrefix("/patients").Subrouter()
	patients.Use(r.authMiddleware.Authenticate)
	patients.Use(middleware.RequirePatient)
	patients.HandleFunc("/me/profile", r.patientHandler.GetProfile).Methods(http.MethodGet)
	patients.HandleFunc("/me/profile", r.patientHandler.UpdateProfile).Methods(http.MethodPut)

	// Appointments and booking
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.Handle("", middleware.RequirePatient(http.HandlerFunc(r.bookingHandler.BookDirect))).Methods(http.MethodPost)
	appointments.Handle("/create-payment-order", middleware.RequirePatient(http.HandlerFunc(r.bookingHandler.CreatePaymentOrder))).Methods(http.MethodPost)
	appointments.Handle("/verify-payment", middleware.RequirePatient(http.HandlerFunc(r.bookingHandler.VerifyPayment))).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.GetMine).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	appointments.Handle("/{id}/complete", middleware.RequireDoctor(http.HandlerFunc(r.appointmentHandler.Complete))).Methods(http.MethodPut)
	appointments.Handle("/{id}/cancel", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.Cancel))).Methods(http.MethodPut)
	appointments.Handle("/{id}/triage", middleware.RequireAdmin(http.HandlerFunc(r.appointmentHandler.SetTriage))).Methods(http.MethodPut)

	// Prescriptions
	prescriptions := api.PathPrefix("/prescriptions").Subrouter()
	prescriptions.Use(r.authMiddleware.Authenticate)
	prescriptions.Handle("", middleware.RequireDoctor(http.HandlerFunc(r.prescriptionHandler.Create))).Methods(http.MethodPost)
	prescriptions.HandleFunc("/appointment/{id}", r.prescriptionHandler.GetByAppointment).Methods(http.MethodGet)
	prescriptions.HandleFunc("/{recordId}", r.prescriptionHandler.GetByID).Methods(http.MethodGet)
	prescriptions.Handle("/{recordId}", middleware.RequireDoctor(http.HandlerFunc(r.prescriptionHandler.Update))).Methods(http.MethodPut)
	prescriptions.HandleFunc("/{recordId}/pdf", r.prescriptionHandler.RenderPDF).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors/{id}/verify", r.adminHandler.VerifyDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}/suspend", r.adminHandler.SuspendDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}", r.adminHandler.RejectDoctor).Methods(http.MethodDelete)
	admin.HandleFunc("/users", r.adminHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/schedules", r.scheduleHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/schedules/doctor/{id}", r.scheduleHandler.ListByDoctor).Methods(http.MethodGet)
	admin.HandleFunc("/schedules/{id}", r.scheduleHandler.Delete).Methods(http.MethodDelete)

	// Global middleware
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.metricsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
