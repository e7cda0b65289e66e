package router

import "github.com/gin-gonic/gin"

// Module mounts one feature's routes on the /api/v1 group.
// Modules attach their own auth and rate limit middleware per group.
type Module interface {
	Register(api *gin.RouterGroup)
}
