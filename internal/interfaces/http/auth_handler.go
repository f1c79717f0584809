package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/auth"
	"github.com/jhoicas/agromarket-api/internal/application/dto"
)

// AuthHandler inicio de sesión por contraseña, código y WeChat.
type AuthHandler struct {
	uc  *auth.UseCase
	log zerolog.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.UseCase, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// PasswordLogin godoc
// @Summary      Iniciar sesión con contraseña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PasswordLoginRequest  true  "phone, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/auth/password-login [post]
func (h *AuthHandler) PasswordLogin(c *fiber.Ctx) error {
	var in dto.PasswordLoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" || in.Password == "" {
		return validation(c, "phone y password son requeridos")
	}
	res, err := h.uc.AuthenticateByPassword(c.UserContext(), in.Phone, in.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(loginResponse(res))
}

// PhoneLogin godoc
// @Summary      Iniciar sesión con código de verificación (registra si no existe)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PhoneLoginRequest  true  "phone, code"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/phone-login [post]
func (h *AuthHandler) PhoneLogin(c *fiber.Ctx) error {
	var in dto.PhoneLoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" || in.Code == "" {
		return validation(c, "phone y code son requeridos")
	}
	res, err := h.uc.AuthenticateByVerificationCode(c.UserContext(), in.Phone, in.Code)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(loginResponse(res))
}

// SMSCode godoc
// @Summary      Emitir código de verificación
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SMSCodeRequest  true  "phone"
// @Success      200   {object}  dto.SMSCodeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/sms-code [post]
func (h *AuthHandler) SMSCode(c *fiber.Ctx) error {
	var in dto.SMSCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" {
		return validation(c, "phone es requerido")
	}
	ttl, err := h.uc.IssueVerificationCode(c.UserContext(), in.Phone)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SMSCodeResponse{ExpiresIn: int(ttl.Seconds())})
}

// WxLogin godoc
// @Summary      Iniciar sesión desde el mini programa de WeChat
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.WxLoginRequest  true  "code, codeSource"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/wx-login [post]
func (h *AuthHandler) WxLogin(c *fiber.Ctx) error {
	var in dto.WxLoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Code == "" || in.CodeSource == "" {
		return validation(c, "code y codeSource son requeridos")
	}
	res, err := h.uc.AuthenticateByWeChat(c.UserContext(), in.Code, in.CodeSource)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(loginResponse(res))
}

func loginResponse(res *auth.Result) dto.LoginResponse {
	return dto.LoginResponse{
		UserID:  res.UserID,
		Token:   res.Token,
		Account: dto.NewAccountResponse(res.Account),
		Created: res.Created,
	}
}
