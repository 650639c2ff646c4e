package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookieName = "lume_flash"

// setFlash deja un mensaje para la proxima pagina que se renderice.
func setFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, msg, 60, "/", "", false, true)
}

// popFlash lee el mensaje pendiente y lo borra.
func popFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookieName)
	if err != nil || msg == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, "", -1, "/", "", false, true)
	return msg
}
