package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
)

func page(text string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(nethttp.StatusOK, text)
	}
}
