// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/api"
	"github.com/codr1/Escapade/internal/api/auth"
	"github.com/codr1/Escapade/internal/api/booking"
	"github.com/codr1/Escapade/internal/api/staff"
	"github.com/codr1/Escapade/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithAuth,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	registerRoutes(router, cfg)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config) {
	// Main page handler
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, booking.PagePath, http.StatusFound)
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Account routes
	mux.HandleFunc("GET "+auth.SignUpPath, auth.HandleSignUpPage)
	mux.HandleFunc("POST "+auth.SignUpPath, auth.HandleSignUp)
	mux.HandleFunc("GET "+auth.LoginPath, auth.HandleLoginPage)
	mux.HandleFunc("POST "+auth.LoginPath, auth.HandleLogin)
	mux.HandleFunc("POST "+auth.LogoutPath, auth.HandleLogout)

	// Booking widget routes
	mux.Handle("GET "+booking.PagePath, signedIn(booking.HandleBookingPage))
	mux.Handle("POST "+booking.SelectPath, signedIn(booking.HandleSelect))
	mux.Handle("GET /api/v1/booking/booked-slots", signedIn(booking.HandleBookedSlots))
	mux.Handle("POST "+booking.SubmitPath, signedIn(booking.HandleCreateBooking))
	mux.Handle("GET "+booking.SubmitPath+"/{orderNumber}", signedIn(booking.HandleBookingLookup))
	mux.Handle("GET "+booking.MyBookingsPath, signedIn(booking.HandleMyBookings))

	// Staff routes
	mux.Handle("GET "+staff.PagePath, staffOnly(staff.HandleBookingsPage))
	mux.Handle("GET "+staff.ListPath, staffOnly(staff.HandleBookingList))
	mux.Handle("POST "+staff.StatusPath, staffOnly(staff.HandleSetStatus))

	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Static file handling with logging and environment awareness
	staticDir := cfg.App.StaticDir
	if staticDir == "" {
		// Default to the build directory if not specified
		staticDir = "build/bin/static"
	}
	fs := http.FileServer(http.Dir(staticDir))

	// Add logging middleware for static files
	mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}

func signedIn(h http.HandlerFunc) http.Handler {
	return api.RequireUser(h)
}

func staffOnly(h http.HandlerFunc) http.Handler {
	return api.WithStaffAuth(h)
}
