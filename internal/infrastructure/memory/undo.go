package memory

import (
	"reflect"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

// rowLog valor previo por ID; nil indica que la fila no existía.
type rowLog[T any] map[int64]*T

// record guarda el valor previo de las filas que difieren entre before y after.
// Solo cuenta la primera vez que se toca cada fila.
func (l rowLog[T]) record(before, after map[int64]T) {
	for id, v := range before {
		if _, seen := l[id]; seen {
			continue
		}
		if w, ok := after[id]; !ok || !reflect.DeepEqual(v, w) {
			l[id] = ptr(v)
		}
	}
	for id := range after {
		if _, seen := l[id]; seen {
			continue
		}
		if _, ok := before[id]; !ok {
			l[id] = nil
		}
	}
}

func (l rowLog[T]) apply(m map[int64]T) {
	for id, v := range l {
		if v == nil {
			delete(m, id)
		} else {
			m[id] = *v
		}
	}
}

// undoLog filas tocadas por una unidad de trabajo, por tabla.
type undoLog struct {
	users      rowLog[entity.User]
	roles      rowLog[entity.Role]
	farmers    rowLog[entity.Farmer]
	categories rowLog[entity.Category]
	origins    rowLog[entity.Origin]
	batches    rowLog[entity.Batch]
	media      rowLog[entity.BatchMediaFile]
	products   rowLog[entity.Product]
	carts      rowLog[entity.Cart]
}

func newUndoLog() *undoLog {
	return &undoLog{
		users: rowLog[entity.User]{}, roles: rowLog[entity.Role]{}, farmers: rowLog[entity.Farmer]{},
		categories: rowLog[entity.Category]{}, origins: rowLog[entity.Origin]{}, batches: rowLog[entity.Batch]{},
		media: rowLog[entity.BatchMediaFile]{}, products: rowLog[entity.Product]{}, carts: rowLog[entity.Cart]{},
	}
}

func (u *undoLog) record(before, after *tables) {
	u.users.record(before.users, after.users)
	u.roles.record(before.roles, after.roles)
	u.farmers.record(before.farmers, after.farmers)
	u.categories.record(before.categories, after.categories)
	u.origins.record(before.origins, after.origins)
	u.batches.record(before.batches, after.batches)
	u.media.record(before.media, after.media)
	u.products.record(before.products, after.products)
	u.carts.record(before.carts, after.carts)
}

// apply devuelve las filas registradas a su valor previo. Los IDs consumidos no se reutilizan.
func (u *undoLog) apply(t *tables) {
	u.users.apply(t.users)
	u.roles.apply(t.roles)
	u.farmers.apply(t.farmers)
	u.categories.apply(t.categories)
	u.origins.apply(t.origins)
	u.batches.apply(t.batches)
	u.media.apply(t.media)
	u.products.apply(t.products)
	u.carts.apply(t.carts)
}
