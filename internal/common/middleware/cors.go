package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS allows any origin but only the verbs the API serves.
// Content-Disposition must be exposed or browsers drop the export
// filenames.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		ExposeHeaders: []string{"Content-Disposition"},
	})
}
