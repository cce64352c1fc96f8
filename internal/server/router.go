// Package server exposes the auth subsystem over HTTP/JSON: login and
// second-factor verification, TOTP enrollment, recovery codes, trusted
// devices, device sessions, the activity log, and admin role management.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"netnest/backend/internal/activity"
	"netnest/backend/internal/devicesession"
	"netnest/backend/internal/enrollment"
	"netnest/backend/internal/login"
	"netnest/backend/internal/notify"
	"netnest/backend/internal/provider"
	"netnest/backend/internal/recovery"
	"netnest/backend/internal/roles"
	"netnest/backend/internal/security"
	"netnest/backend/internal/trust"
)

// Pinger is the readiness probe dependency (e.g. *sqlx.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the services the HTTP surface is built from. Log may be nil.
// DB may be nil; readiness then skips the database ping.
type Deps struct {
	Login      *login.Service
	Enrollment *enrollment.Service
	Recovery   *recovery.Service
	Trust      *trust.Service
	Sessions   *devicesession.Service
	Activity   *activity.Service
	Recorder   activity.Recorder
	Roles      *roles.Service
	Provider   provider.Client
	Tokens     *security.TokenProvider
	DB         Pinger
	Log        *zap.Logger

	// Notify sends customer SMS on status transitions. Nil disables it.
	Notify *notify.Dispatcher

	// AllowedOrigins configures CORS. Empty falls back to the cors
	// package's allow-all default.
	AllowedOrigins []string
}

// Handler holds the HTTP handlers for the auth API.
type Handler struct {
	login      *login.Service
	enrollment *enrollment.Service
	recovery   *recovery.Service
	trust      *trust.Service
	sessions   *devicesession.Service
	activity   *activity.Service
	recorder   activity.Recorder
	roles      *roles.Service
	provider   provider.Client
	tokens     *security.TokenProvider
	db         Pinger
	log        *zap.Logger
	notify     *notify.Dispatcher
}

// New builds the full HTTP handler: the /api/v1 router with auth middleware,
// plus /healthz and /metrics, wrapped in CORS and otelhttp tracing.
func New(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		login:      deps.Login,
		enrollment: deps.Enrollment,
		recovery:   deps.Recovery,
		trust:      deps.Trust,
		sessions:   deps.Sessions,
		activity:   deps.Activity,
		recorder:   deps.Recorder,
		roles:      deps.Roles,
		provider:   deps.Provider,
		tokens:     deps.Tokens,
		db:         deps.DB,
		log:        log,
		notify:     deps.Notify,
	}

	root := mux.NewRouter()
	root.Use(requestLogger(log))
	root.Use(measureRequests)

	root.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := root.PathPrefix("/api/v1").Subrouter()

	// Credential stage; no bearer token yet.
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Everything else runs behind a valid session token.
	authed := api.NewRoute().Subrouter()
	authed.Use(h.requireAuth)

	authed.HandleFunc("/auth/verify-totp", h.VerifyTOTP).Methods(http.MethodPost)
	authed.HandleFunc("/auth/verify-recovery", h.VerifyRecovery).Methods(http.MethodPost)
	authed.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	authed.HandleFunc("/mfa/enroll", h.EnrollStart).Methods(http.MethodPost)
	authed.HandleFunc("/mfa/confirm", h.EnrollConfirm).Methods(http.MethodPost)
	authed.HandleFunc("/mfa/cancel", h.EnrollCancel).Methods(http.MethodPost)
	authed.HandleFunc("/mfa/disable", h.MFADisable).Methods(http.MethodPost)

	authed.HandleFunc("/recovery-codes", h.GenerateRecoveryCodes).Methods(http.MethodPost)
	authed.HandleFunc("/recovery-codes/remaining", h.RemainingRecoveryCodes).Methods(http.MethodGet)

	authed.HandleFunc("/trusted-devices", h.ListTrustedDevices).Methods(http.MethodGet)
	authed.HandleFunc("/trusted-devices/{id}", h.RevokeTrustedDevice).Methods(http.MethodDelete)

	authed.HandleFunc("/device-sessions/track", h.TrackDeviceSession).Methods(http.MethodPost)
	authed.HandleFunc("/device-sessions", h.ListDeviceSessions).Methods(http.MethodGet)
	authed.HandleFunc("/device-sessions/{id}", h.RemoveDeviceSession).Methods(http.MethodDelete)

	authed.HandleFunc("/account/password", h.UpdatePassword).Methods(http.MethodPut)
	authed.HandleFunc("/account/email", h.UpdateEmail).Methods(http.MethodPut)

	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/activity", h.ListActivity).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/roles", h.ListRoles).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/roles", h.GrantRole).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/roles/{role}", h.RevokeRole).Methods(http.MethodDelete)
	admin.HandleFunc("/employees", h.EmployeeAdded).Methods(http.MethodPost)
	admin.HandleFunc("/employees/{name}", h.EmployeeRemoved).Methods(http.MethodDelete)
	admin.HandleFunc("/status-events", h.StatusChanged).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var handler http.Handler = root
	handler = clientState(handler)
	handler = c.Handler(handler)
	handler = otelhttp.NewHandler(handler, "http.server")
	return handler
}

// serverError logs err and writes a generic 500 so internals never leak.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("handler error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}
