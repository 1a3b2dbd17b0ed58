// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// Identity is the verified caller, resolved once here and passed
// explicitly into every core operation. Role is "admin" or "user".
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller carries the admin role flag.
func (i Identity) IsAdmin() bool { return i.Role == "admin" }

// UserContextMiddleware turns the identity headers set by the Gateway
// (X-User-ID, X-User-Email, X-User-Roles) into a single typed Identity
// attached to the request context. Requests without an identity are
// rejected with 401.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		email := c.Get("X-User-Email")
		rolesStr := c.Get("X-User-Roles")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		role := "user"
		for _, r := range strings.Split(rolesStr, ",") {
			if strings.TrimSpace(r) == "admin" {
				role = "admin"
				break
			}
		}

		c.Locals(identityKey, Identity{UserID: userID, Email: email, Role: role})
		return c.Next()
	}
}

// AdminOnly gates admin operations. It assumes UserContextMiddleware
// already ran on the route group.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth context"})
		}
		if !ident.IsAdmin() {
			log.Printf("🚫 [ADMIN] user %s denied on %s", ident.UserID, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}

// IdentityFrom returns the Identity attached by UserContextMiddleware.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	ident, ok := c.Locals(identityKey).(Identity)
	return ident, ok
}
