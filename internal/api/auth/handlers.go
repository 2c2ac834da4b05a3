// internal/api/auth/handlers.go
package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/api/authz"
	authtempl "github.com/codr1/Escapade/internal/templates/components/auth"
	"github.com/codr1/Escapade/internal/templates/layouts"
	"github.com/codr1/Escapade/internal/users"
)

const (
	SignUpPath = "/signup"
	LoginPath  = "/login"
	LogoutPath = "/logout"
	HomePath   = "/"

	invalidLoginMessage = "Please enter a correct username and password."
)

var (
	errNotInitialized = errors.New("auth handlers not initialized")

	accounts      *users.Service
	sessions      *SessionStore
	secureCookies = true
)

// InitHandlers wires the account service and session store. secure controls
// the Secure attribute on the session cookie.
func InitHandlers(svc *users.Service, store *SessionStore, secure bool) {
	accounts = svc
	sessions = store
	secureCookies = secure
}

// LoginRedirect is where an anonymous request for next is sent.
func LoginRedirect(next string) string {
	next = SafeNext(next)
	if next == "" || next == HomePath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext accepts only same-site absolute paths.
func SafeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return ""
	}
	return raw
}

// HandleSignUpPage handles GET /signup.
func HandleSignUpPage(w http.ResponseWriter, r *http.Request) {
	if authz.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
		return
	}
	renderSignUp(w, r, http.StatusOK, authtempl.SignUpData{})
}

// HandleSignUp handles POST /signup. A new account is signed in straight
// away.
func HandleSignUp(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if accounts == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	req := users.SignUpRequest{
		Username:  apiutil.TrimmedFormValue(r.PostForm, "username"),
		Email:     apiutil.TrimmedFormValue(r.PostForm, "email"),
		Password1: r.PostForm.Get("password1"),
		Password2: r.PostForm.Get("password2"),
	}

	user, err := accounts.SignUp(r.Context(), req)
	if err != nil {
		var fieldErr apiutil.FieldError
		if errors.As(err, &fieldErr) {
			renderSignUp(w, r, http.StatusBadRequest, authtempl.SignUpData{
				Username:    req.Username,
				Email:       req.Email,
				FieldErrors: map[string]string{fieldErr.Field: fieldErr.Error()},
			})
			return
		}
		logger.Error().Err(err).Msg("Failed to sign up user")
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	if err := CreateSession(w, user.ID); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, HomePath, http.StatusSeeOther)
}

// HandleLoginPage handles GET /login.
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := SafeNext(r.URL.Query().Get("next"))
	if authz.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, redirectTarget(next), http.StatusSeeOther)
		return
	}
	renderLogin(w, r, http.StatusOK, authtempl.LoginData{Next: next})
}

// HandleLogin handles POST /login.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if accounts == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := apiutil.TrimmedFormValue(r.PostForm, "username")
	next := SafeNext(r.PostForm.Get("next"))

	user, err := accounts.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			logger.Info().Str("username", username).Msg("Login rejected")
			renderLogin(w, r, http.StatusUnauthorized, authtempl.LoginData{
				Username: username,
				Next:     next,
				Error:    invalidLoginMessage,
			})
			return
		}
		logger.Error().Err(err).Msg("Failed to authenticate user")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	if err := CreateSession(w, user.ID); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	logger.Info().Int64("user_id", user.ID).Bool("staff", user.IsStaff).Msg("User logged in")
	http.Redirect(w, r, redirectTarget(next), http.StatusSeeOther)
}

// HandleLogout handles POST /logout.
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user := authz.UserFromContext(r.Context()); user != nil {
		log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User logged out")
	}
	ClearSession(w, r)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func redirectTarget(next string) string {
	if next == "" {
		return HomePath
	}
	return next
}

func renderSignUp(w http.ResponseWriter, r *http.Request, status int, data authtempl.SignUpData) {
	data.Action = SignUpPath
	data.LoginPath = LoginPath
	renderPage(w, r, status, "Sign Up", authtempl.SignUpForm(data))
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, data authtempl.LoginData) {
	data.Action = LoginPath
	data.SignUpPath = SignUpPath
	renderPage(w, r, status, "Log In", authtempl.LoginForm(data))
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, title string, content templ.Component) {
	apiutil.RenderHTMLComponentStatus(r.Context(), w, status, layouts.Base(title, content), nil, "Failed to render auth page", "Failed to render page")
}
