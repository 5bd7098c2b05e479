package utils

import (
	"github.com/gin-gonic/gin"

	"tfc-server/internal/schemas"
)

// WriteAndLogResponse writes the response object as JSON with the given
// status code.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the internal error and responds with the given custom
// error and status code. The internal error text never reaches the client.
func WriteAndLogError(ctx *gin.Context, customErr *schemas.CustomError, statusCode int, err error) {
	LogMessageWithFieldsAndError(ctx, "error", "Error occurred", err)
	LogMessageWithFields(ctx, "error", "Returning "+customErr.Code+" / "+customErr.Message)
	ctx.JSON(statusCode, &schemas.ErrorDTO{Error: *customErr})
}
