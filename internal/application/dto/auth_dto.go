package dto

// PasswordLoginRequest inicio de sesión con teléfono y contraseña.
type PasswordLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PhoneLoginRequest inicio de sesión con código de verificación.
type PhoneLoginRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// SMSCodeRequest solicitud de código de verificación.
type SMSCodeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// SMSCodeResponse segundos de validez del código emitido.
type SMSCodeResponse struct {
	ExpiresIn int `json:"expires_in"`
}

// WxLoginRequest codeSource: "phone" (botón getPhoneNumber) o "login" (wx.login, no soportado).
type WxLoginRequest struct {
	Code       string `json:"code" validate:"required"`
	CodeSource string `json:"codeSource" validate:"required,oneof=phone login"`
}

// LoginResponse token Hasura y cuenta autenticada.
type LoginResponse struct {
	UserID  int64           `json:"userId"`
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
	Created bool            `json:"created"`
}
