package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/models"
	"github.com/noah-isme/gwd-records-api/pkg/response"
)

// Authorizer decides whether an actor may perform action on object.
type Authorizer interface {
	Authorize(actor *models.JWTClaims, object authz.Object, action authz.Action) error
}

// Authorize rejects requests whose role lacks the permission. Services repeat
// the check together with ownership rules; this guard fails fast at the edge.
func Authorize(authorizer Authorizer, object authz.Object, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authorizer.Authorize(CurrentUser(c), object, action); err != nil {
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}
