package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a success envelope
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a failure envelope. Only message reaches the client.
func JSONError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// AbortWithError sends a failure envelope and stops the handler chain
func AbortWithError(c *gin.Context, status int, message string) {
	JSONError(c, status, message)
	c.Abort()
}
