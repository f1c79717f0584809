package hasura

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// bigint Hasura serializa bigint como número o como string según HASURA_GRAPHQL_STRINGIFY_NUMERIC_TYPES.
type bigint int64

func (b *bigint) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("bigint: %w", err)
	}
	*b = bigint(n)
	return nil
}

func optID(b *bigint) *int64 {
	if b == nil {
		return nil
	}
	v := int64(*b)
	return &v
}

type userRow struct {
	ID        bigint    `json:"id"`
	Phone     string    `json:"phone"`
	Nickname  *string   `json:"nickname"`
	AvatarURL *string   `json:"avatar_url"`
	Password  *string   `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const userFields = `id phone nickname avatar_url password created_at updated_at`

func (r *userRow) entity() *entity.User {
	return &entity.User{
		ID: int64(r.ID), Phone: r.Phone, Nickname: r.Nickname, AvatarURL: r.AvatarURL,
		Password: r.Password, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type roleRow struct {
	ID       bigint `json:"id"`
	UserID   bigint `json:"user_users"`
	RoleType string `json:"role_type"`
}

const roleFields = `id user_users role_type`

func (r *roleRow) entity() *entity.Role {
	return &entity.Role{ID: int64(r.ID), UserID: int64(r.UserID), RoleType: r.RoleType}
}

type farmerRow struct {
	ID     bigint  `json:"id"`
	UserID *bigint `json:"user_users"`
	Name   *string `json:"name"`
}

const farmerFields = `id user_users name`

func (r *farmerRow) entity() *entity.Farmer {
	return &entity.Farmer{ID: int64(r.ID), UserID: optID(r.UserID), Name: r.Name}
}

type categoryRow struct {
	ID   bigint `json:"id"`
	Name string `json:"name"`
}

type originRow struct {
	ID           bigint `json:"id"`
	Name         string `json:"name"`
	CategoryName string `json:"category_name"`
}

type batchRow struct {
	ID       bigint `json:"id"`
	FarmerID bigint `json:"farmer_farmers"`
	ImageURL string `json:"image_url"`
}

type mediaRow struct {
	ID            bigint `json:"id"`
	BatchID       bigint `json:"batch_batches"`
	FileType      string `json:"file_type"`
	FileURL       string `json:"file_url"`
	MediaCategory string `json:"media_category"`
}

type productRow struct {
	ID         bigint          `json:"id"`
	BatchID    bigint          `json:"batch_batches"`
	CategoryID *bigint         `json:"category_categories"`
	OriginID   *bigint         `json:"origin_origins"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UnitStock  int             `json:"unit_stock"`
	Unit       string          `json:"unit"`
	Sales      int             `json:"sales"`
}

type cartRow struct {
	ID         bigint `json:"id"`
	UserID     bigint `json:"user_users"`
	ProductID  bigint `json:"product_products"`
	Quantity   int    `json:"quantity"`
	IsSelected bool   `json:"is_selected"`
}

// idRow respuesta mínima de un insert/update.
type idRow struct {
	ID bigint `json:"id"`
}

// returning forma de mutation_response de Hasura.
type returning[T any] struct {
	AffectedRows int64 `json:"affected_rows"`
	Returning    []T   `json:"returning"`
}

var _ json.Unmarshaler = (*bigint)(nil)
