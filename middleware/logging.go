package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/utils"
)

// RequestLogger logs method, path, acting profile, status and duration of
// every request. Query strings are never logged since they may carry share
// tokens.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		profileID := ""
		if profile := GetProfile(c); profile != nil {
			profileID = profile.ID
		}
		utils.LogAPIRequest(c.Request.Method, c.Request.URL.Path, profileID, c.Writer.Status(), time.Since(start))
	}
}
