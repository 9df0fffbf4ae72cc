package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/model"
)

const identityKey = "identity"

// CurrentIdentity returns the caller stored by JWTAuth.  The zero Identity
// is returned on routes without authentication.
func CurrentIdentity(c echo.Context) model.Identity {
	if who, ok := c.Get(identityKey).(model.Identity); ok {
		return who
	}
	return model.Identity{}
}

// SetIdentity attaches who to the context.
func SetIdentity(c echo.Context, who model.Identity) { c.Set(identityKey, who) }

// userKey identifies the caller for rate limiting: the user id, or "anon".
func userKey(c echo.Context) string {
	who := CurrentIdentity(c)
	if !who.Authenticated() {
		return "anon"
	}
	return strconv.FormatUint(who.UserID, 10)
}
