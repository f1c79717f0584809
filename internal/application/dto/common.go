package dto

// Tamaños de página de los listados admin.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery ?limit&offset de los listados.
type PageQuery struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalized ajusta Limit a 1..MaxPageSize (0 = DefaultPageSize) y Offset a >= 0.
func (p PageQuery) Normalized() PageQuery {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	p.Offset = max(p.Offset, 0)
	return p
}

// Response página efectivamente aplicada, devuelta junto a los elementos.
func (p PageQuery) Response() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse metadatos de la página devuelta.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (NOT_FOUND, ALREADY_BOUND, ...); Message es para humanos.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
