package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	listHandler *ListHandler,
	subscriberHandler *SubscriberHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware(), MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/lists/:id/subscribers", subscriberHandler.Subscribe)
	r.GET("/confirm", subscriberHandler.Confirm)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected: owner-scoped list and subscriber views
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/lists", listHandler.Create)
		auth.GET("/lists", listHandler.List)
		auth.GET("/lists/:id", listHandler.Get)
		auth.DELETE("/lists/:id", listHandler.Delete)
		auth.GET("/lists/:id/subscribers", subscriberHandler.ListForMailingList)
		auth.GET("/subscribers/:id", subscriberHandler.Get)
		auth.DELETE("/subscribers/:id", subscriberHandler.Delete)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
