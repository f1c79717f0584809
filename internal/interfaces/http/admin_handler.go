package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/account"
	"github.com/jhoicas/agromarket-api/internal/application/binding"
	"github.com/jhoicas/agromarket-api/internal/application/dto"
	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/pkg/phone"
)

// AdminHandler gestión de usuarios, roles y agricultores.
type AdminHandler struct {
	accounts *account.UseCase
	engine   *binding.Engine
	log      zerolog.Logger
}

// NewAdminHandler construye el handler de administración.
func NewAdminHandler(accounts *account.UseCase, engine *binding.Engine, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, engine: engine, log: log}
}

// CreateUser godoc
// @Summary      Crear usuario con contraseña
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateUserRequest  true  "phone, password"
// @Success      201   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/admin/create-user [post]
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" || in.Password == "" {
		return validation(c, "phone y password son requeridos")
	}
	acc, err := h.accounts.CreateUser(c.UserContext(), in.Phone, in.Password)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAccountResponse(acc))
}

// CreateOperator godoc
// @Summary      Crear o convertir una cuenta de operador
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateOperatorRequest  true  "phone, nickname, password"
// @Success      200   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/admin/create-operator [post]
func (h *AdminHandler) CreateOperator(c *fiber.Ctx) error {
	var in dto.CreateOperatorRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" || in.Password == "" {
		return validation(c, "phone y password son requeridos")
	}
	acc, err := h.accounts.ProvisionAccount(c.UserContext(), account.ProvisionInput{
		Phone:    in.Phone,
		Nickname: trimmed(in.Nickname),
		Password: &in.Password,
		RoleType: entity.RoleOperator,
		ByAdmin:  callerIsAdmin(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// ProvisionFarmer godoc
// @Summary      Crear o convertir una cuenta de agricultor (usuario, rol y perfil)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ProvisionFarmerRequest  true  "phone, nickname, password, farmer_name"
// @Success      200   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/admin/provision-farmer [post]
func (h *AdminHandler) ProvisionFarmer(c *fiber.Ctx) error {
	var in dto.ProvisionFarmerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Phone == "" {
		return validation(c, "phone es requerido")
	}
	acc, err := h.accounts.ProvisionAccount(c.UserContext(), account.ProvisionInput{
		Phone:      in.Phone,
		Nickname:   trimmed(in.Nickname),
		Password:   in.Password,
		RoleType:   entity.RoleFarmer,
		FarmerName: trimmed(in.FarmerName),
		ByAdmin:    callerIsAdmin(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// CreateFarmer godoc
// @Summary      Crear perfil de agricultor, sin vincular o vinculado al usuario del teléfono
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateFarmerRequest  true  "phone (opcional), farmer_name"
// @Success      200   {object}  dto.CreateFarmerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/create-farmer [post]
func (h *AdminHandler) CreateFarmer(c *fiber.Ctx) error {
	var in dto.CreateFarmerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	name := trimmed(&in.FarmerName)
	ctx := c.UserContext()

	var user *entity.User
	if in.Phone != "" {
		p, err := phone.Normalize(in.Phone)
		if err != nil {
			return validation(c, "phone inválido")
		}
		if user, err = h.engine.FindUserByPhone(ctx, p); err != nil {
			return writeError(c, h.log, err)
		}
	}
	var userID *int64
	if user != nil {
		userID = &user.ID
	}
	farmer, err := h.engine.CreateFarmerProfile(ctx, name, userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.CreateFarmerResponse{Farmer: dto.NewFarmerResponse(farmer)}
	if user != nil {
		u := dto.NewUserResponse(user)
		out.User = &u
	}
	return c.JSON(out)
}

// SetOperator godoc
// @Summary      Conceder rol de operador
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UserIDRequest  true  "userId"
// @Success      200   {object}  dto.OKResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/set-operator [post]
func (h *AdminHandler) SetOperator(c *fiber.Ctx) error {
	return h.grant(c, entity.RoleOperator)
}

// SetAdmin godoc
// @Summary      Conceder rol de administrador
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UserIDRequest  true  "userId"
// @Success      200   {object}  dto.OKResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/set-admin [post]
func (h *AdminHandler) SetAdmin(c *fiber.Ctx) error {
	return h.grant(c, entity.RoleAdmin)
}

func (h *AdminHandler) grant(c *fiber.Ctx, roleType string) error {
	var in dto.UserIDRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.UserID <= 0 {
		return validation(c, "userId es requerido")
	}
	if _, err := h.engine.GrantRole(c.UserContext(), in.UserID, roleType); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OKResponse{OK: true, Message: "rol " + roleType + " asignado"})
}

// SetFarmer godoc
// @Summary      Vincular un agricultor libre a un usuario
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.FarmerBindingRequest  true  "userId, farmerId"
// @Success      200   {object}  dto.FarmerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/set-farmer [post]
func (h *AdminHandler) SetFarmer(c *fiber.Ctx) error {
	in, ok, err := parseBinding(c)
	if !ok {
		return err
	}
	farmer, err := h.engine.BindFarmerToUser(c.UserContext(), in.FarmerID, in.UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFarmerResponse(farmer))
}

// UpdateFarmerUser godoc
// @Summary      Reasignar un agricultor a otro usuario
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.FarmerBindingRequest  true  "farmerId, userId"
// @Success      200   {object}  dto.FarmerResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/update-farmer-user [post]
func (h *AdminHandler) UpdateFarmerUser(c *fiber.Ctx) error {
	in, ok, err := parseBinding(c)
	if !ok {
		return err
	}
	farmer, err := h.engine.RebindFarmerUser(c.UserContext(), in.FarmerID, in.UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFarmerResponse(farmer))
}

// parseBinding ok=false significa que la respuesta de error ya se escribió.
func parseBinding(c *fiber.Ctx) (dto.FarmerBindingRequest, bool, error) {
	var in dto.FarmerBindingRequest
	if err := c.BodyParser(&in); err != nil {
		return in, false, badBody(c)
	}
	if in.UserID <= 0 || in.FarmerID <= 0 {
		return in, false, validation(c, "userId y farmerId son requeridos")
	}
	return in, true, nil
}

// RevokeRole godoc
// @Summary      Quitar un rol; quitar farmer desvincula su agricultor
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        roleId  path  int  true  "id del rol"
// @Success      200   {object}  dto.RevokeRoleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/admin/users/roles/{roleId} [delete]
func (h *AdminHandler) RevokeRole(c *fiber.Ctx) error {
	roleID, err := c.ParamsInt("roleId")
	if err != nil || roleID <= 0 {
		return validation(c, "roleId inválido")
	}
	res, err := h.engine.RevokeRole(c.UserContext(), int64(roleID), callerIsAdmin(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RevokeRoleResponse{OK: true, Role: dto.NewRoleResponse(res.Role), UnboundFarmers: res.UnboundFarmers})
}

// ListUsers godoc
// @Summary      Listar cuentas con roles y agricultor
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "máximo (1-100, defecto 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200   {object}  dto.UserListResponse
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return validation(c, "limit/offset inválidos")
	}
	list, err := h.accounts.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.UserListResponse{Items: make([]dto.AccountResponse, 0, len(list)), Page: page.Response()}
	for _, acc := range list {
		out.Items = append(out.Items, dto.NewAccountResponse(acc))
	}
	return c.JSON(out)
}

// UpdateUser godoc
// @Summary      Cambiar apodo o contraseña
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                    true  "id del usuario"
// @Param        body  body  dto.UpdateUserRequest  true  "nickname, password"
// @Success      200   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return validation(c, "id inválido")
	}
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	acc, err := h.accounts.UpdateUser(c.UserContext(), int64(id), trimmed(in.Nickname), in.Password, callerIsAdmin(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewAccountResponse(acc))
}

// ListFarmers godoc
// @Summary      Listar agricultores
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        unbound  query  bool  false  "solo sin vincular"
// @Param        limit    query  int   false  "máximo (1-100, defecto 20)"
// @Param        offset   query  int   false  "desplazamiento"
// @Success      200   {object}  dto.FarmerListResponse
// @Router       /api/admin/farmers [get]
func (h *AdminHandler) ListFarmers(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return validation(c, "limit/offset inválidos")
	}
	list, err := h.engine.ListFarmers(c.UserContext(), c.QueryBool("unbound"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.FarmerListResponse{Items: make([]dto.FarmerResponse, 0, len(list)), Page: page.Response()}
	for _, f := range list {
		out.Items = append(out.Items, dto.NewFarmerResponse(f))
	}
	return c.JSON(out)
}

func parsePage(c *fiber.Ctx) (dto.PageQuery, error) {
	var page dto.PageQuery
	if err := c.QueryParser(&page); err != nil {
		return page, err
	}
	return page.Normalized(), nil
}

// trimmed nil o vacío tras recortar -> nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// callerIsAdmin indica si el token de la petición incluye el rol admin.
func callerIsAdmin(c *fiber.Ctx) bool {
	claims := GetClaims(c)
	return claims != nil && claims.HasAnyRole(entity.RoleAdmin)
}
