package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// PrivateNetworkHeader lets browsers on public origins call the API when it
// runs on a private address.
const PrivateNetworkHeader = "Access-Control-Allow-Private-Network"

// CORS allows any origin to issue GET requests with any headers.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet},
		AllowHeaders:    []string{"*"},
	})
}

// PrivateNetworkAccess marks every response, preflights included, as
// reachable from public networks. It must run before CORS, which aborts
// preflight requests.
func PrivateNetworkAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(PrivateNetworkHeader, "true")
		c.Next()
	}
}
