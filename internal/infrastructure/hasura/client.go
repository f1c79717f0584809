// Package hasura implementa los puertos de persistencia sobre el endpoint GraphQL de Hasura.
package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/domain"
	"github.com/jhoicas/agromarket-api/internal/infrastructure/metrics"
)

// Códigos de extensions.code que Hasura usa para violaciones de constraint.
const (
	codeConstraintViolation = "constraint-violation"
	codeUniqueViolation     = "unique-violation"
)

// Config conexión al endpoint.
type Config struct {
	Endpoint    string
	AdminSecret string
	Timeout     time.Duration
}

// Request cuerpo de una petición GraphQL.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Error error GraphQL devuelto por Hasura.
type Error struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
		Path string `json:"path"`
	} `json:"extensions"`
}

func (e Error) Error() string {
	if e.Extensions.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Extensions.Code)
}

// IsUniqueViolation indica si el error corresponde a una clave única repetida.
func (e Error) IsUniqueViolation() bool {
	switch e.Extensions.Code {
	case codeUniqueViolation:
		return true
	case codeConstraintViolation:
		msg := strings.ToLower(e.Message)
		return strings.Contains(msg, "uniqueness violation") || strings.Contains(msg, "duplicate key")
	}
	return false
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors"`
}

// operation metadatos extraídos del documento GraphQL.
type operation struct {
	name string
	kind string // query | mutation
}

// Client ejecuta operaciones GraphQL contra Hasura con el admin secret.
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu  sync.RWMutex
	ops map[string]operation
}

// NewClient construye el cliente. m puede ser nil.
func NewClient(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		secret:   cfg.AdminSecret,
		http:     &http.Client{Timeout: timeout},
		metrics:  m,
		log:      log.With().Str("component", "hasura").Logger(),
		ops:      map[string]operation{},
	}
}

// Execute envía doc con vars y decodifica data en out (puede ser nil).
// Las violaciones de unicidad se devuelven como domain.ErrDuplicate; el resto como *domain.QueryError.
func (c *Client) Execute(ctx context.Context, doc string, vars map[string]interface{}, out interface{}) (err error) {
	op, err := c.operation(doc)
	if err != nil {
		return err
	}
	c.log.Trace().Str("operation", op.name).Str("kind", op.kind).Msg("graphql")
	start := time.Now()
	defer func() { c.metrics.ObserveStore("hasura", op.name, time.Since(start), err) }()

	body, err := json.Marshal(Request{Query: doc, Variables: vars, OperationName: op.name})
	if err != nil {
		return domain.WrapQuery(op.name, fmt.Errorf("codificar petición: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.WrapQuery(op.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("x-hasura-admin-secret", c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.WrapQuery(op.name, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapQuery(op.name, fmt.Errorf("leer respuesta: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return domain.WrapQuery(op.name, fmt.Errorf("estado HTTP %d: %s", resp.StatusCode, truncate(raw, 256)))
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.WrapQuery(op.name, fmt.Errorf("decodificar respuesta: %w", err))
	}
	if len(r.Errors) > 0 {
		for _, ge := range r.Errors {
			if ge.IsUniqueViolation() {
				c.log.Debug().Str("operation", op.name).Str("message", ge.Message).Msg("violación de unicidad")
				return fmt.Errorf("%s: %w", op.name, domain.ErrDuplicate)
			}
		}
		return domain.WrapQuery(op.name, errors.Join(asErrors(r.Errors)...))
	}
	if out == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return domain.WrapQuery(op.name, fmt.Errorf("decodificar data: %w", err))
	}
	return nil
}

// operation parsea el documento una sola vez y exige exactamente una operación con nombre.
func (c *Client) operation(doc string) (operation, error) {
	c.mu.RLock()
	op, ok := c.ops[doc]
	c.mu.RUnlock()
	if ok {
		return op, nil
	}
	op, err := parseOperation(doc)
	if err != nil {
		return operation{}, err
	}
	c.mu.Lock()
	c.ops[doc] = op
	c.mu.Unlock()
	return op, nil
}

func parseOperation(doc string) (operation, error) {
	src := source.NewSource(&source.Source{Body: []byte(doc), Name: "hasura"})
	parsed, err := parser.Parse(parser.ParseParams{Source: src})
	if err != nil {
		return operation{}, fmt.Errorf("documento GraphQL inválido: %w", err)
	}
	var ops []*ast.OperationDefinition
	for _, def := range parsed.Definitions {
		if od, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, od)
		}
	}
	if len(ops) != 1 {
		return operation{}, fmt.Errorf("se esperaba una operación GraphQL, hay %d", len(ops))
	}
	if ops[0].Name == nil || ops[0].Name.Value == "" {
		return operation{}, fmt.Errorf("la operación GraphQL debe tener nombre")
	}
	return operation{name: ops[0].Name.Value, kind: ops[0].Operation}, nil
}

func asErrors(list []Error) []error {
	out := make([]error, len(list))
	for i, e := range list {
		out[i] = e
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

const pingQuery = `query Ping { __typename }`

// Ping comprueba que el endpoint responde.
func (c *Client) Ping(ctx context.Context) error {
	return c.Execute(ctx, pingQuery, nil, nil)
}
