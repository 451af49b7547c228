package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/realtime"
	"gorm.io/gorm"
)

// Table is typed access to one logical table. It is cheap to construct; bind
// one per call site with For.
type Table[T any] struct {
	s    *Store
	name string
}

func For[T any](s *Store, name string) *Table[T] {
	return &Table[T]{s: s, name: name}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) conn(ctx context.Context) *gorm.DB {
	return t.s.db.WithContext(ctx).Model(new(T))
}

func (t *Table[T]) List(ctx context.Context, q Query) ([]T, error) {
	key := "list:" + q.Key()
	rows := []T{}
	if !t.s.inTx() && t.s.cache.Get(ctx, t.name, key, &rows) {
		return rows, nil
	}
	if err := q.apply(t.conn(ctx)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	if !t.s.inTx() {
		t.s.cache.Set(ctx, t.name, key, rows)
	}
	return rows, nil
}

func (t *Table[T]) Count(ctx context.Context, q Query) (int64, error) {
	key := "count:" + q.Key()
	var total int64
	if !t.s.inTx() && t.s.cache.Get(ctx, t.name, key, &total) {
		return total, nil
	}
	if err := q.applyFilters(t.conn(ctx)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	if !t.s.inTx() {
		t.s.cache.Set(ctx, t.name, key, total)
	}
	return total, nil
}

// First returns the first row matching q or ErrNotFound.
func (t *Table[T]) First(ctx context.Context, q Query) (*T, error) {
	row := new(T)
	if err := q.apply(t.conn(ctx)).Take(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", t.name, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	return row, nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.First(ctx, Q().Eq("id", id))
}

func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	if err := t.s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	t.s.emit(ctx, newChange(t.name, realtime.EventInsert, row, nil))
	return nil
}

// Update applies patch to one row and returns the row as stored afterwards.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*T, error) {
	old, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.conn(ctx).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, fmt.Errorf("update %s: %w", t.name, err)
	}
	updated, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.s.emit(ctx, newChange(t.name, realtime.EventUpdate, updated, old))
	return updated, nil
}

// UpdateWhere applies patch to every row matching q in one statement.
func (t *Table[T]) UpdateWhere(ctx context.Context, q Query, patch map[string]any) (int64, error) {
	before, err := t.matching(ctx, q)
	if err != nil || len(before) == 0 {
		return 0, err
	}
	ids := idsOf(before)
	// filters are reapplied so a row that changed since the read is skipped
	res := q.applyFilters(t.conn(ctx)).Where("id IN ?", ids).Updates(patch)
	if res.Error != nil {
		return 0, fmt.Errorf("update %s: %w", t.name, res.Error)
	}
	var after []T
	if err := t.conn(ctx).Where("id IN ?", ids).Find(&after).Error; err != nil {
		return res.RowsAffected, fmt.Errorf("reload %s: %w", t.name, err)
	}
	oldByID := make(map[any]T, len(before))
	for i, row := range before {
		oldByID[ids[i]] = row
	}
	for _, row := range after {
		old := oldByID[idOf(row)]
		t.s.emit(ctx, newChange(t.name, realtime.EventUpdate, row, old))
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	old, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := t.s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	t.s.emit(ctx, newChange(t.name, realtime.EventDelete, nil, old))
	return nil
}

// DeleteWhere removes every row matching q and reports how many went.
func (t *Table[T]) DeleteWhere(ctx context.Context, q Query) (int64, error) {
	before, err := t.matching(ctx, q)
	if err != nil || len(before) == 0 {
		return 0, err
	}
	res := t.s.db.WithContext(ctx).Where("id IN ?", idsOf(before)).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", t.name, res.Error)
	}
	for _, row := range before {
		t.s.emit(ctx, newChange(t.name, realtime.EventDelete, nil, row))
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) matching(ctx context.Context, q Query) ([]T, error) {
	var rows []T
	if err := q.applyFilters(t.conn(ctx)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return rows, nil
}

func idsOf[T any](rows []T) []any {
	ids := make([]any, len(rows))
	for i, row := range rows {
		ids[i] = idOf(row)
	}
	return ids
}

// idOf reads the "id" field from the row's JSON image.
func idOf[T any](row T) any {
	return record(row)["id"]
}
