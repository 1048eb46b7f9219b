package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"fabula/pkg/cache"
	"fabula/pkg/database"
	"fabula/pkg/geo"
	"fabula/pkg/handlers"
	"fabula/pkg/hub"
	"fabula/pkg/metrics"
	"fabula/pkg/middleware"
	"fabula/pkg/repository"
	"fabula/pkg/server"
	"fabula/pkg/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"
)

func main() {
	db := database.Connect()
	defer db.Close()

	// Serverless PG: keep pool small, connections short-lived
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	database.Migrate(db)
	go sweepExpiredSessions(db)

	log.Println("[FABULA] Connecting to Redis...")
	redis := cache.New()
	defer redis.Close()
	log.Println("[FABULA] Redis connected")

	wsHub := hub.New()

	sessions := repository.NewSessionRepository(db)
	users := repository.NewUserRepository(db)
	stories := repository.NewStoryRepository(db)

	authSvc := services.NewAuthService(sessions, users, redis, wsHub, geo.New(), services.NewTokenIssuer())
	storySvc := services.NewStoryService(stories, redis)

	auth := handlers.NewAuth(authSvc)
	storyH := handlers.NewStories(storySvc)

	app := server.NewApp("fabula")

	authGroup := app.Group("/auth")
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.Login)
	authGroup.Post("/refresh-tokens", auth.Refresh)
	authGroup.Post("/logout", auth.Logout)

	protected := authGroup.Group("", middleware.AuthMiddleware)
	protected.Post("/logout-all-sessions", auth.LogoutAll)
	protected.Get("/sessions", auth.Sessions)

	storiesGroup := app.Group("/stories")
	storiesGroup.Get("/", storyH.List)
	storiesGroup.Get("/:id", storyH.Get)
	storiesGroup.Post("/", middleware.AuthMiddleware, storyH.Submit)

	app.Use("/ws", parseWSToken)
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(int)
		wsHub.HandleClientConn(c, userID)
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	log.Printf("[FABULA] Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("[FABULA] Failed to start: %v", err)
	}
}

// parseWSToken authenticates the websocket upgrade. Browsers cannot
// set headers on WebSocket, so the access token also rides the query
// string.
func parseWSToken(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(401).JSON(fiber.Map{"error": "missing token"})
	}

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

	c.Locals("user_id", int(userID))
	return c.Next()
}

func sweepExpiredSessions(db *sql.DB) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		n, err := repository.DeleteExpired(db, time.Now())
		if err != nil {
			log.Printf("[DB] session sweep failed: %v", err)
			continue
		}
		if n > 0 {
			metrics.SessionsSwept.Add(float64(n))
			log.Printf("[DB] swept %d expired sessions", n)
		}
	}
}
