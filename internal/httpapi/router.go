/*******************************************************************************
* File name: router.go
*
* Description: route registration for the file API.
*******************************************************************************/

package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"stripedfs/internal/locks"
	"stripedfs/internal/validator"
)

// NewRouter builds the gin engine serving the file API under /api/v1.
func NewRouter(v *validator.Validator, reg *locks.Registry, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/health", Health)

	fileHandler := NewFileHandler(v, reg, logger)
	fixHandler := NewFixHandler(v, logger)

	api := r.Group("/api/v1")
	{
		api.POST("/file/:filename", fileHandler.Create)
		api.GET("/file/:filename", fileHandler.Retrieve)
		api.PUT("/file/:filename", fileHandler.Update)
		api.DELETE("/file/:filename", fileHandler.Delete)
		api.POST("/fix/:block_id", fixHandler.Fix)
	}

	return r
}
