package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lume/internal/service"
)

// PageHandler renderiza las paginas publicas y las de cuenta.
type PageHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	chatServ *service.ChatService
}

func NewPageHandler(logger *zap.Logger, userServ *service.UserService, chatServ *service.ChatService) *PageHandler {
	return &PageHandler{
		logger:   logger,
		userServ: userServ,
		chatServ: chatServ,
	}
}

// pageData arma los datos comunes del layout.
func pageData(c *gin.Context, title string, extra gin.H) gin.H {
	data := gin.H{
		"Title": title,
		"Flash": popFlash(c),
	}
	if username, ok := CurrentUsername(c); ok {
		data["Username"] = username
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", pageData(c, "Error", gin.H{"Message": msg}))
}

func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData(c, "", nil))
}

func (h *PageHandler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", pageData(c, "About", nil))
}

func (h *PageHandler) ContactUs(c *gin.Context) {
	c.HTML(http.StatusOK, "contactus.html", pageData(c, "Contact", nil))
}

// Main maneja GET /main.
func (h *PageHandler) Main(c *gin.Context) {
	c.HTML(http.StatusOK, "main.html", pageData(c, "Home", nil))
}

// Profile maneja GET /profile.
func (h *PageHandler) Profile(c *gin.Context) {
	username, _ := CurrentUsername(c)
	ctx := c.Request.Context()

	user, err := h.userServ.GetProfile(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			renderError(c, http.StatusNotFound, "We could not find your account.")
			return
		}
		h.logger.Error("load profile failed", zap.Error(err), zap.String("username", username))
		renderError(c, http.StatusInternalServerError, "We could not load your profile.")
		return
	}

	count, err := h.chatServ.CountTurns(ctx, username)
	if err != nil {
		h.logger.Warn("count turns failed", zap.Error(err), zap.String("username", username))
	}

	c.HTML(http.StatusOK, "profile.html", pageData(c, "Profile", gin.H{
		"Profile":   user,
		"TurnCount": count,
	}))
}
