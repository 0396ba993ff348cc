package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/session"
	"github.com/dbids-ops/dbids-console/internal/usecase"
)

type AuthHandler struct {
	authUsecase *usecase.AuthUsecase
	session     *session.Session
}

func NewAuthHandler(authUsecase *usecase.AuthUsecase, sess *session.Session) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		session:     sess,
	}
}

func (h *AuthHandler) Register(app *fiber.App) {
	group := app.Group("/console/auth")
	group.Post("/login", h.Login)
	group.Post("/register", h.RegisterAdmin)
	group.Post("/logout", h.Logout)
	group.Get("/profile", h.Profile)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	profile, err := h.authUsecase.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *AuthHandler) RegisterAdmin(c *fiber.Ctx) error {
	var input entity.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if err := h.authUsecase.Register(c.Context(), input); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "registered"})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authUsecase.Logout(c.Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Profile tells the browser shell whether a session exists. After a forced
// logout the reason marker explains why the shell should show the login view.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	if !h.session.Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"reason": h.session.Reason(),
		})
	}
	return c.JSON(h.session.Profile())
}
