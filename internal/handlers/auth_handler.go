package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"clanledger/internal/security"
	"clanledger/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService   *service.AuthService
	familyService *service.FamilyService
	templates     *template.Template
	googleOAuth   *oauth2.Config
}

// NewAuthHandler creates a new auth handler. The Google config may be
// nil when social login is not configured.
func NewAuthHandler(authService *service.AuthService, familyService *service.FamilyService,
	templates *template.Template, googleClientID, googleClientSecret, baseURL string) *AuthHandler {
	var googleOAuth *oauth2.Config
	if googleClientID != "" && googleClientSecret != "" {
		googleOAuth = &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return &AuthHandler{
		authService:   authService,
		familyService: familyService,
		templates:     templates,
		googleOAuth:   googleOAuth,
	}
}

// Home redirects to the dashboard or login page.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}

	data := LoginViewData{
		Title:       "Sign in",
		GoogleLogin: h.googleOAuth != nil,
	}
	if r.URL.Query().Get("activated") == "1" {
		data.Success = "Your account is activated. You can sign in."
	}
	h.render(w, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	session, _, err := h.authService.Login(email, password)
	if err != nil {
		message := "Invalid email or password"
		if errors.Is(err, service.ErrAccountInactive) {
			message = err.Error()
		}
		h.render(w, "login.tmpl", LoginViewData{
			Title:       "Sign in",
			Error:       message,
			Email:       email,
			GoogleLogin: h.googleOAuth != nil,
		})
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	families, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}
	h.render(w, "register.tmpl", RegisterViewData{
		Title:    "Register",
		Families: families,
	})
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.RegisterInput{
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		FirstName:  r.FormValue("first_name"),
		LastName:   r.FormValue("last_name"),
		Phone:      r.FormValue("phone"),
		FamilySlug: r.FormValue("family"),
	}

	if _, err := h.authService.Register(input); err != nil {
		families, _ := h.familyService.ListFamilies()
		h.render(w, "register.tmpl", RegisterViewData{
			Title:     "Register",
			Error:     err.Error(),
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Phone:     input.Phone,
			Families:  families,
		})
		return
	}

	h.render(w, "login.tmpl", LoginViewData{
		Title:       "Sign in",
		Success:     "Account created. Check your email for the activation link.",
		Email:       input.Email,
		GoogleLogin: h.googleOAuth != nil,
	})
}

// Activate verifies the emailed activation token.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing activation token", http.StatusBadRequest)
		return
	}
	if _, err := h.authService.Activate(token); err != nil {
		h.render(w, "login.tmpl", LoginViewData{
			Title:       "Sign in",
			Error:       "That activation link is invalid or has expired.",
			GoogleLogin: h.googleOAuth != nil,
		})
		return
	}
	http.Redirect(w, r, "/login?activated=1", http.StatusSeeOther)
}

// Logout invalidates the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// StartGoogleOAuth initiates the Google sign-in flow.
func (h *AuthHandler) StartGoogleOAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusBadRequest)
		return
	}
	state := security.GenerateSessionID()
	http.SetCookie(w, security.CreateSessionCookie(r, "oauth_state", state, time.Now().Add(10*time.Minute)))
	http.Redirect(w, r, h.googleOAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// GoogleOAuthCallback completes the Google sign-in flow.
func (h *AuthHandler) GoogleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusBadRequest)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.googleOAuth.Exchange(r.Context(), code)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Google sign-in failed", err)
		return
	}

	client := h.googleOAuth.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Google sign-in failed", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respondWithError(w, http.StatusBadGateway, "Google sign-in failed",
			fmt.Errorf("userinfo returned status %d", resp.StatusCode))
		return
	}

	var info struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		respondWithError(w, http.StatusBadGateway, "Google sign-in failed", err)
		return
	}

	session, account, err := h.authService.OAuthLogin(info.Email, info.GivenName, info.FamilyName)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sign-in failed", err)
		return
	}

	slog.Info("google sign-in", "account_id", account.ID)
	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
