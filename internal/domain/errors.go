package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrAlreadyBound         = errors.New("el agricultor ya está vinculado a otro usuario")
	ErrAlreadyHasFarmer     = errors.New("el usuario ya tiene un agricultor vinculado")
	ErrInvalidCredential    = errors.New("contraseña incorrecta")
	ErrNoPasswordSet        = errors.New("la cuenta no tiene contraseña, use el inicio de sesión con código")
	ErrInvalidOrExpiredCode = errors.New("código de verificación incorrecto o expirado")
	ErrQuery                = errors.New("fallo en la capa de datos")
)

// NotFoundError indica qué entidad y qué clave no existen. errors.Is(err, ErrNotFound) es true.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no encontrado: %s", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound construye un NotFoundError; key se formatea con %v.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// QueryError envuelve un fallo opaco del almacén (GraphQL, SQL). errors.Is(err, ErrQuery) es true.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() []error { return []error{ErrQuery, e.Err} }

// WrapQuery devuelve nil si err es nil. Los errores de dominio (ErrDuplicate, NotFound) no se envuelven.
func WrapQuery(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound) {
		return err
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Op: op, Err: err}
}
