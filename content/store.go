package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klinika/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrStale    = errors.New("record was changed by someone else")
)

// DefaultOrder sorts by display rank, ties by insertion. Tables without a
// sort_order column fall back to InsertOrder.
const (
	DefaultOrder = "sort_order ASC, id ASC"
	InsertOrder  = "id ASC"
)

type Scope = func(*gorm.DB) *gorm.DB

// Active keeps rows visible on public pages.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// Preload names an association to load, with optional scopes applied to it.
// Children are always sorted by DefaultOrder.
type Preload struct {
	Path   string
	Scopes []Scope
}

type ListOptions struct {
	Scopes   []Scope
	Preloads []Preload
	Order    string
	Limit    int
}

// Store is a gorm repository for one table.
type Store[T any, PT interface {
	*T
	models.Record
}] struct {
	db    *gorm.DB
	order string
}

func NewStore[T any, PT interface {
	*T
	models.Record
}](db *gorm.DB) *Store[T, PT] {
	return &Store[T, PT]{db: db, order: orderFor(db, new(T))}
}

// orderFor picks DefaultOrder when the model has a sort_order column.
func orderFor(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return InsertOrder
	}
	if stmt.Schema.LookUpField("sort_order") == nil {
		return InsertOrder
	}
	return DefaultOrder
}

// WithTx returns a store bound to tx.
func (s *Store[T, PT]) WithTx(tx *gorm.DB) *Store[T, PT] {
	return &Store[T, PT]{db: tx, order: s.order}
}

func (s *Store[T, PT]) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn with a store bound to a new transaction.
func (s *Store[T, PT]) Transaction(ctx context.Context, fn func(tx *Store[T, PT]) error) error {
	return s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

func applyPreloads(db *gorm.DB, preloads []Preload) *gorm.DB {
	for _, p := range preloads {
		scopes := p.Scopes
		db = db.Preload(p.Path, func(db *gorm.DB) *gorm.DB {
			return db.Scopes(scopes...).Order(DefaultOrder)
		})
	}
	return db
}

func (s *Store[T, PT]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	order := opts.Order
	if order == "" {
		order = s.order
	}
	q := applyPreloads(s.DB(ctx).Scopes(opts.Scopes...), opts.Preloads).Order(order)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	items := []T{}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %T: %w", *new(T), err)
	}
	return items, nil
}

// First returns the first row matching opts in list order.
func (s *Store[T, PT]) First(ctx context.Context, opts ListOptions) (PT, error) {
	opts.Limit = 1
	items, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return PT(&items[0]), nil
}

// Get looks a row up by primary key; opts.Order is ignored.
func (s *Store[T, PT]) Get(ctx context.Context, id uint, opts ListOptions) (PT, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	opts.Scopes = append([]Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}}, opts.Scopes...)
	opts.Order = InsertOrder
	return s.First(ctx, opts)
}

func (s *Store[T, PT]) Exists(ctx context.Context, scopes ...Scope) (bool, error) {
	var count int64
	if err := s.DB(ctx).Model(new(T)).Scopes(scopes...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts rec without touching its associations.
func (s *Store[T, PT]) Create(ctx context.Context, rec PT) error {
	rec.Meta().ID = 0
	if err := s.DB(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("create %T: %w", rec, err)
	}
	return nil
}

// Replace overwrites every column of the row with rec's id, keeping its creation time.
// When expected is set, the stored updatedAt must match it or ErrStale is returned.
func (s *Store[T, PT]) Replace(ctx context.Context, rec PT, expected *time.Time) error {
	return s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		current := PT(new(T))
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(current, rec.Meta().ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if expected != nil && !sameInstant(current.Meta().UpdatedAt, *expected) {
			return ErrStale
		}

		rec.Meta().CreatedAt = current.Meta().CreatedAt
		if err := tx.Omit(clause.Associations).Save(rec).Error; err != nil {
			return fmt.Errorf("replace %T: %w", rec, err)
		}
		return nil
	})
}

// Delete removes the row permanently.
func (s *Store[T, PT]) Delete(ctx context.Context, id uint) error {
	result := s.DB(ctx).Delete(new(T), id)
	if result.Error != nil {
		return fmt.Errorf("delete %T: %w", *new(T), result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateColumns sets the given columns without touching the rest of the row.
func (s *Store[T, PT]) UpdateColumns(ctx context.Context, id uint, values map[string]any) error {
	result := s.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}
