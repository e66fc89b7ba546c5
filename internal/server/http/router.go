package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/chainvault/internal/logging"
	sc "github.com/dmitrijs2005/chainvault/internal/server/config"
)

// NewRouter wires the handler into the route tree. The verification
// lookup and health check are public; everything under /api/v1/files
// requires a bearer token.
func NewRouter(config *sc.Config, handler *Handler, logger logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	r.GET("/health", handler.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/verify/:cid", handler.Verify)

	authed := v1.Group("")
	authed.Use(AuthMiddleware([]byte(config.SecretKey)))
	authed.POST("/files", handler.Upload)
	authed.GET("/files", handler.List)
	authed.GET("/files/:id/download", handler.Download)
	authed.DELETE("/files/:id", handler.Delete)

	return r
}
