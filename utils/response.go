package utils

import (
	"github.com/gin-gonic/gin"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// JSONPage writes the admin list envelope.
func JSONPage(c *gin.Context, data interface{}, page, perPage int, total int64) {
	c.JSON(200, gin.H{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": gin.H{},
	})
}

func JSONError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}
