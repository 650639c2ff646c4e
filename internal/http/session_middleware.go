package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lume/internal/service"
)

const (
	sessionCookieName = "lume_session"
	sessionUserKey    = "session_username"
)

// RequireSessionPage protege paginas HTML: sin sesion valida redirige a /login.
func RequireSessionPage(sessions *service.SessionService) gin.HandlerFunc {
	return requireSession(sessions, func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	})
}

// RequireSessionAPI protege endpoints JSON: sin sesion valida responde 401.
func RequireSessionAPI(sessions *service.SessionService) gin.HandlerFunc {
	return requireSession(sessions, func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		c.Abort()
	})
}

func requireSession(sessions *service.SessionService, reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := resolveSession(c, sessions)
		if !ok {
			reject(c)
			return
		}
		c.Set(sessionUserKey, username)
		c.Next()
	}
}

// OptionalSession carga el username si hay sesion, sin exigirla (nav de paginas publicas).
func OptionalSession(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, ok := resolveSession(c, sessions); ok {
			c.Set(sessionUserKey, username)
		}
		c.Next()
	}
}

func resolveSession(c *gin.Context, sessions *service.SessionService) (string, bool) {
	if sessions == nil {
		return "", false
	}
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		return "", false
	}
	claims, err := sessions.Resolve(token)
	if err != nil {
		return "", false
	}
	return claims.Username, true
}

// CurrentUsername devuelve el usuario autenticado del request.
func CurrentUsername(c *gin.Context) (string, bool) {
	val, ok := c.Get(sessionUserKey)
	if !ok {
		return "", false
	}
	username, ok := val.(string)
	return username, ok && username != ""
}
