// Package memory implementa los puertos de persistencia en memoria.
// Se usa con DATA_BACKEND=memory y como doble de prueba de los casos de uso.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
	"github.com/jhoicas/agromarket-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type tables struct {
	next       int64
	users      map[int64]entity.User
	roles      map[int64]entity.Role
	farmers    map[int64]entity.Farmer
	categories map[int64]entity.Category
	origins    map[int64]entity.Origin
	batches    map[int64]entity.Batch
	media      map[int64]entity.BatchMediaFile
	products   map[int64]entity.Product
	carts      map[int64]entity.Cart
}

func newTables() *tables {
	return &tables{
		users:      map[int64]entity.User{},
		roles:      map[int64]entity.Role{},
		farmers:    map[int64]entity.Farmer{},
		categories: map[int64]entity.Category{},
		origins:    map[int64]entity.Origin{},
		batches:    map[int64]entity.Batch{},
		media:      map[int64]entity.BatchMediaFile{},
		products:   map[int64]entity.Product{},
		carts:      map[int64]entity.Cart{},
	}
}

// clone copia superficial por tabla. Los valores se guardan por valor y los punteros internos
// nunca se mutan en sitio, así que basta para el snapshot.
func (t *tables) clone() *tables {
	return &tables{
		next:       t.next,
		users:      maps.Clone(t.users),
		roles:      maps.Clone(t.roles),
		farmers:    maps.Clone(t.farmers),
		categories: maps.Clone(t.categories),
		origins:    maps.Clone(t.origins),
		batches:    maps.Clone(t.batches),
		media:      maps.Clone(t.media),
		products:   maps.Clone(t.products),
		carts:      maps.Clone(t.carts),
	}
}

func (t *tables) nextID() int64 {
	t.next++
	return t.next
}

// Store almacén en memoria. Run serializa las unidades de trabajo; si fn falla deshace
// solo las filas que tocó, sin perder escrituras hechas fuera de Run mientras tanto.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *tables
	now  func() time.Time
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{data: newTables(), now: time.Now}
}

// Repos devuelve los repositorios sobre el almacén, fuera de cualquier unidad de trabajo.
func (s *Store) Repos() repository.Repos {
	return (&view{Store: s}).repos()
}

// Run ejecuta fn como unidad de trabajo: si devuelve error, las filas que fn modificó
// vuelven a su valor previo.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	v := &view{Store: s, undo: newUndoLog()}
	if err := fn(v.repos()); err != nil {
		s.mu.Lock()
		next := s.data.clone()
		v.undo.apply(next)
		s.data = next
		s.mu.Unlock()
		return err
	}
	return nil
}

// view acceso de los repositorios al almacén; dentro de Run registra el valor previo de cada fila escrita.
type view struct {
	*Store
	undo *undoLog
}

func (v *view) repos() repository.Repos {
	return repository.Repos{
		Users:   &userRepo{s: v},
		Roles:   &roleRepo{s: v},
		Farmers: &farmerRepo{s: v},
		Catalog: &catalogRepo{s: v},
	}
}

func (v *view) read(fn func(t *tables)) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	fn(v.data)
}

// write aplica fn sobre una copia y la publica solo si no hay error: cada sentencia es atómica.
func (v *view) write(fn func(t *tables) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	if v.undo != nil {
		v.undo.record(v.data, next)
	}
	v.data = next
	return nil
}

// Counts resume el número de filas por tabla (útil en pruebas y en el resumen de la carga semilla).
type Counts struct {
	Users, Roles, Farmers, Categories, Origins, Batches, MediaFiles, Products, Carts int
}

// Counts devuelve el tamaño actual de cada tabla.
func (s *Store) Counts() Counts {
	var c Counts
	(&view{Store: s}).read(func(t *tables) {
		c = Counts{
			Users: len(t.users), Roles: len(t.roles), Farmers: len(t.farmers),
			Categories: len(t.categories), Origins: len(t.origins), Batches: len(t.batches),
			MediaFiles: len(t.media), Products: len(t.products), Carts: len(t.carts),
		}
	})
	return c
}

// ordered devuelve los valores de m en orden de ID que cumplen keep (keep nil = todos).
func ordered[T any](m map[int64]T, keep func(T) bool) []*T {
	out := make([]*T, 0)
	for _, id := range slices.Sorted(maps.Keys(m)) {
		v := m[id]
		if keep == nil || keep(v) {
			out = append(out, &v)
		}
	}
	return out
}

func page[T any](in []*T, limit, offset int) []*T {
	if offset >= len(in) {
		return []*T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func ptr[T any](v T) *T { return &v }
