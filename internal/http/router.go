package http

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lume/internal/metrics"
	"lume/internal/service"
	"lume/web"
)

// NewRouter configura el router de Gin con middlewares, plantillas y rutas.
func NewRouter(
	logger *zap.Logger,
	sessions *service.SessionService,
	pageH *PageHandler,
	authH *AuthHandler,
	chatH *ChatHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(template.Must(web.Templates()))

	// Middlewares basicos: logging, metricas y recovery.
	r.Use(zapLoggerMiddleware(logger), metricsMiddleware(), gin.Recovery())

	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/healthz", healthH.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/", OptionalSession(sessions))
	public.GET("/", pageH.Index)
	public.GET("/about", pageH.About)
	public.GET("/contactus", pageH.ContactUs)
	public.GET("/signup", authH.SignupForm)
	public.POST("/signup", authH.Signup)
	public.GET("/login", authH.LoginForm)
	public.POST("/login", authH.Login)
	public.GET("/logout", authH.Logout)

	pages := r.Group("/", RequireSessionPage(sessions))
	pages.GET("/main", pageH.Main)
	pages.GET("/profile", pageH.Profile)
	pages.GET("/chatpage", chatH.ChatPage)
	pages.GET("/chat", chatH.Transcript)

	api := r.Group("/", jsonContentTypeMiddleware(), RequireSessionAPI(sessions))
	api.POST("/ask", chatH.Ask)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestCount.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
