package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lume/internal/service"
)

// AuthHandler mantiene dependencias para signup, login y logout.
type AuthHandler struct {
	logger       *zap.Logger
	userServ     *service.UserService
	sessionServ  *service.SessionService
	secureCookie bool
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, sessionServ *service.SessionService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		userServ:     userServ,
		sessionServ:  sessionServ,
		secureCookie: secureCookie,
	}
}

type credentialsForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// SignupForm maneja GET /signup.
func (h *AuthHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", pageData(c, "Sign up", nil))
}

// Signup maneja POST /signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("invalid signup form", zap.Error(err))
		setFlash(c, "Invalid form submission.")
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	_, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUser):
			setFlash(c, "Username already taken!")
		case errors.Is(err, service.ErrInvalidInput):
			setFlash(c, "Please choose a username without spaces and a password.")
		case errors.Is(err, service.ErrInvalidEmail):
			setFlash(c, "Please enter a valid email address.")
		default:
			h.logger.Error("register failed", zap.Error(err))
			setFlash(c, "Something went wrong. Please try again.")
		}
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	setFlash(c, "Registration successful! Please login.")
	c.Redirect(http.StatusFound, "/login")
}

// LoginForm maneja GET /login.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", pageData(c, "Log in", nil))
}

// Login maneja POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("invalid login form", zap.Error(err))
		h.renderLoginError(c, "Invalid username or password")
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("authenticate failed", zap.Error(err))
			h.renderLoginError(c, "Something went wrong. Please try again.")
			return
		}
		h.renderLoginError(c, "Invalid username or password")
		return
	}

	token, err := h.sessionServ.Issue(user.Username)
	if err != nil {
		h.logger.Error("issue session failed", zap.Error(err), zap.String("username", user.Username))
		h.renderLoginError(c, "Something went wrong. Please try again.")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(h.sessionServ.TTL().Seconds()), "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/main")
}

func (h *AuthHandler) renderLoginError(c *gin.Context, msg string) {
	data := pageData(c, "Log in", nil)
	data["Flash"] = msg
	c.HTML(http.StatusOK, "login.html", data)
}

// Logout maneja GET /logout: la cookie se borra aunque el token ya no sea valido.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
		if err := h.sessionServ.Revoke(token); err != nil {
			h.logger.Debug("revoke session skipped", zap.Error(err))
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/login")
}
