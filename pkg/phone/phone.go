// Package phone normaliza números de teléfono antes de usarlos como clave natural.
package phone

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// ErrInvalid número vacío o con caracteres no numéricos tras normalizar.
var ErrInvalid = errors.New("phone: número inválido")

const (
	minDigits = 5
	maxDigits = 20
)

// Normalize convierte dígitos de ancho completo (１３８…) a ASCII, elimina espacios y guiones
// y el prefijo internacional +86/0086. Devuelve ErrInvalid si el resultado no son solo dígitos.
func Normalize(raw string) (string, error) {
	s := width.Narrow.String(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	switch {
	case strings.HasPrefix(s, "+86"):
		s = s[3:]
	case strings.HasPrefix(s, "0086"):
		s = s[4:]
	}
	if len(s) < minDigits || len(s) > maxDigits {
		return "", ErrInvalid
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalid
		}
	}
	return s, nil
}

// LastDigits devuelve los últimos n dígitos (o el número completo si es más corto).
func LastDigits(phone string, n int) string {
	if len(phone) <= n {
		return phone
	}
	return phone[len(phone)-n:]
}
