package middleware

import "github.com/gin-gonic/gin"

// CtxRealIPKey holds the resolved client address used for rate limiting and logs.
const CtxRealIPKey = "real_ip"

// clientIPHeaders are consulted in order, and only when the direct peer is a trusted proxy.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// TrustProxies sets which peers may supply the client address through
// proxy headers. An empty list trusts nobody, so c.ClientIP() is the socket
// address and spoofed headers are ignored.
func TrustProxies(engine *gin.Engine, proxies []string) error {
	engine.ForwardedByClientIP = true
	engine.RemoteIPHeaders = clientIPHeaders
	return engine.SetTrustedProxies(proxies)
}

// RealIP stores c.ClientIP() under CtxRealIPKey. Configure the engine with
// TrustProxies first; gin's default trusts every peer.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, c.ClientIP())
		c.Next()
	}
}
