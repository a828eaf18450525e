package appErrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleError отправляет клиенту единый JSON-ответ об ошибке.
// AppError возвращается как есть, все остальное превращается в 500.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if As(err, &appErr) {
		c.JSON(appErr.HTTPCode, gin.H{"error": appErr})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": InternalError(err),
	})
}
