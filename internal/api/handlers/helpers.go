package handlers

import (
	"errors"
	"time"

	"finsight/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userID").(string)
	if !ok || raw == "" {
		return uuid.Nil, errors.New("missing user id in context")
	}
	return uuid.Parse(raw)
}

func getIdentity(c *fiber.Ctx) (service.Identity, error) {
	userID, err := getUserID(c)
	if err != nil {
		return service.Identity{}, err
	}
	username, _ := c.Locals("username").(string)
	email, _ := c.Locals("email").(string)
	return service.Identity{UserID: userID, Username: username, Email: email}, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
