package api

import (
	"github.com/gin-gonic/gin"
	"github.com/tejari49/timeroster/internal/apperror"
)

// fail writes a classified error in the wire shape every remote call uses:
// {"success": false, "error": "<code>", "message": "..."}.
func fail(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{
		"success": false,
		"error":   apperror.Code(err),
		"message": err.Error(),
	})
}
