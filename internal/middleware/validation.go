package middleware

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"tfc-server/internal/schemas"
	"tfc-server/internal/utils"
)

// ValidateAndSanitizeStruct binds the request body into a fresh copy of the
// given struct prototype, sanitizes its string fields and validates it.
// Requests that fail any of these steps are rejected with BadRequest before a
// handler ever sees them. A new instance is allocated per request so
// concurrent requests never share a payload.
func ValidateAndSanitizeStruct(prototype interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := reflect.New(reflect.TypeOf(prototype).Elem()).Interface()

		if err := c.ShouldBindJSON(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		validator := utils.GetValidator()
		if err := validator.SanitizeData(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		if err := validator.Validate.Struct(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		// Set the sanitized object in the context
		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}
