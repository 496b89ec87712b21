package users

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// RegisterAuthRoutes mounts the authentication endpoints. The guard
// middleware wraps only the protected routes; registration, login, and
// refresh stay open.
func RegisterAuthRoutes(app fiber.Router, guard fiber.Handler, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Me, guard, controller.Me)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Me       string
	Refresh  string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Auther     Authenticator
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Me:       "/auth/me",
			Refresh:  "/auth/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = key
		return c
	}
}

// RegisterRequest payload
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Department, validation.Length(0, 100)),
		validation.Field(&r.Role, validation.Required, validation.In(RoleEmployee, RoleAdmin)),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// RegistrationCreate handles POST /auth/register
func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := RegisterRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := a.Auther.Register(c.Context(), RegisterUserMessage{
		Name:       payload.Name,
		Email:      payload.Email,
		Password:   payload.Password,
		Department: payload.Department,
		Role:       payload.Role,
	})

	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return badRequest(c, "Email already registered")
		}
		a.Logger.Error("RegistrationCreate error: %s", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("User '%s' registered successfully", user.Email),
	})
}

// LoginPost handles POST /auth/login
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	pair, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		if IsAuthRejection(err) {
			return unauthorized(c, "Invalid email or password")
		}
		a.Logger.Error("LoginPost error: %s", err)
		return internalError(c)
	}

	return c.JSON(pair)
}

// Me handles GET /auth/me. The guard already validated the bearer token and
// parked the claims in the request locals; here we only resolve the record.
func (a *AuthController) Me(c *fiber.Ctx) error {
	claims, ok := c.Locals(a.ContextKey).(interface{ Subject() string })
	if !ok {
		return unauthorized(c, "Could not validate credentials")
	}

	user, err := a.Auther.CurrentUser(c.Context(), claims.Subject())
	if err != nil {
		if IsAuthRejection(err) {
			return unauthorized(c, "Could not validate credentials")
		}
		a.Logger.Error("Me error: %s", err)
		return internalError(c)
	}

	return c.JSON(user)
}

// RefreshPost handles POST /auth/refresh
func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	payload := RefreshRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	pair, err := a.Auther.Refresh(c.Context(), payload.RefreshToken)
	if err != nil {
		if IsAuthRejection(err) {
			return unauthorized(c, "Invalid refresh token")
		}
		a.Logger.Error("RefreshPost error: %s", err)
		return internalError(c)
	}

	return c.JSON(pair)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
