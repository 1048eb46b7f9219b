package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer access token and stores the
// caller's identity in locals: user_id, role, session_id.
func AuthMiddleware(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return c.Status(401).JSON(fiber.Map{"error": "missing token"})
	}

	tokenStr := auth[7:]
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-key-change-in-production"
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
	}

	claims := token.Claims.(*jwt.MapClaims)
	userID, _ := (*claims)["user_id"].(float64)
	role, _ := (*claims)["role"].(string)
	sessionID, _ := (*claims)["session_id"].(float64)

	c.Locals("user_id", int(userID))
	c.Locals("role", role)
	c.Locals("session_id", int(sessionID))

	return c.Next()
}
