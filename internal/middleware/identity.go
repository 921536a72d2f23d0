package middleware

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

func ctxString(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}

// UserID is the authenticated subject, or "" on public routes.
func UserID(c echo.Context) string { return ctxString(c, CtxUserID) }

// Role is the authenticated role, or "".
func Role(c echo.Context) string { return ctxString(c, CtxRole) }

// Email is the authenticated email, or "".
func Email(c echo.Context) string { return ctxString(c, CtxEmail) }

// SubjectID parses the subject as an ObjectID.
func SubjectID(c echo.Context) (primitive.ObjectID, error) {
	return repository.ParseID(UserID(c))
}

// userKey identifies the caller for rate limiting and caching.
func userKey(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
