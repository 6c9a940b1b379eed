package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/lyftr/models"
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ScrapeResponse{
		Error: &models.ErrorDetail{Code: code, Message: message},
	})
}
