package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/domain"
)

// Collection is a typed handle over one collection of the store.
type Collection[T any] struct {
	db  *gorm.DB
	def CollectionDef
}

// Collect returns the typed handle for a collection registered by Initialize.
func Collect[T any](s *Store, name string) (*Collection[T], error) {
	def, ok := s.collection(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	var zero T
	modelType := reflect.TypeOf(def.Model)
	if modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType != reflect.TypeOf(zero) {
		return nil, fmt.Errorf("%w: %s holds %s", ErrModelMismatch, name, modelType)
	}
	return &Collection[T]{db: s.db, def: def}, nil
}

func (c *Collection[T]) Name() string { return c.def.Name }

// Insert stores a new record. Auto-assigned keys are written back into rec.
func (c *Collection[T]) Insert(ctx context.Context, rec *T) error {
	if err := c.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", c.def.Name, domain.ErrDuplicateKey)
		}
		return fmt.Errorf("docstore: insert into %s: %w", c.def.Name, err)
	}
	return nil
}

// Get returns false when no record has the key.
func (c *Collection[T]) Get(ctx context.Context, key any) (*T, bool, error) {
	var rec T
	err := c.db.WithContext(ctx).Where(map[string]any{c.def.PrimaryKey: key}).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("docstore: get %s/%v: %w", c.def.Name, key, err)
	}
	return &rec, true, nil
}

func (c *Collection[T]) FindByIndex(ctx context.Context, index string, values ...any) ([]T, error) {
	cond, _, err := c.indexCondition(index, values)
	if err != nil {
		return nil, err
	}
	recs := make([]T, 0)
	if err := c.db.WithContext(ctx).Where(cond).Order(c.def.PrimaryKey).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("docstore: find %s by %s: %w", c.def.Name, index, err)
	}
	return recs, nil
}

// FindUnique looks a record up through a unique index.
func (c *Collection[T]) FindUnique(ctx context.Context, index string, values ...any) (*T, bool, error) {
	cond, idx, err := c.indexCondition(index, values)
	if err != nil {
		return nil, false, err
	}
	if !idx.Unique {
		return nil, false, fmt.Errorf("%w: %s.%s is not unique", ErrUnknownIndex, c.def.Name, index)
	}
	var rec T
	err = c.db.WithContext(ctx).Where(cond).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("docstore: find %s by %s: %w", c.def.Name, index, err)
	}
	return &rec, true, nil
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	recs := make([]T, 0)
	if err := c.db.WithContext(ctx).Order(c.def.PrimaryKey).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", c.def.Name, err)
	}
	return recs, nil
}

func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	var zero T
	if err := c.db.WithContext(ctx).Model(&zero).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("docstore: count %s: %w", c.def.Name, err)
	}
	return n, nil
}

// Update shallow-merges patch into the stored record. Patch keys are JSON field
// names; the primary key is never overwritten.
func (c *Collection[T]) Update(ctx context.Context, key any, patch map[string]any) (*T, error) {
	var out T
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur T
		if err := tx.Where(map[string]any{c.def.PrimaryKey: key}).Take(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s/%v: %w", c.def.Name, key, domain.ErrNotFound)
			}
			return err
		}
		merged, err := mergeDocument(cur, patch, c.def.PrimaryKey)
		if err != nil {
			return err
		}
		if err := tx.Save(&merged).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%s: %w", c.def.Name, domain.ErrDuplicateKey)
			}
			return err
		}
		out = merged
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("docstore: update %s/%v: %w", c.def.Name, key, err)
	}
	return &out, nil
}

// Delete is a no-op when the key is absent.
func (c *Collection[T]) Delete(ctx context.Context, key any) error {
	var zero T
	if err := c.db.WithContext(ctx).Where(map[string]any{c.def.PrimaryKey: key}).Delete(&zero).Error; err != nil {
		return fmt.Errorf("docstore: delete %s/%v: %w", c.def.Name, key, err)
	}
	return nil
}

// DeleteAllByIndex removes every record matching the index value in one transaction.
func (c *Collection[T]) DeleteAllByIndex(ctx context.Context, index string, values ...any) (int64, error) {
	cond, _, err := c.indexCondition(index, values)
	if err != nil {
		return 0, err
	}
	var removed int64
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zero T
		res := tx.Where(cond).Delete(&zero)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("docstore: delete %s by %s: %w", c.def.Name, index, err)
	}
	return removed, nil
}

func (c *Collection[T]) indexCondition(index string, values []any) (map[string]any, IndexDef, error) {
	idx, ok := c.def.index(index)
	if !ok {
		return nil, IndexDef{}, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.def.Name, index)
	}
	if len(values) != len(idx.Columns) {
		return nil, IndexDef{}, fmt.Errorf("%w: index %s.%s takes %d values, got %d",
			domain.ErrInvalidInput, c.def.Name, index, len(idx.Columns), len(values))
	}
	cond := make(map[string]any, len(values))
	for i, col := range idx.Columns {
		cond[col] = values[i]
	}
	return cond, idx, nil
}

func mergeDocument[T any](cur T, patch map[string]any, keyField string) (T, error) {
	var out T
	raw, err := json.Marshal(cur)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	for field, value := range patch {
		if field == keyField {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return out, fmt.Errorf("%w: field %s: %w", domain.ErrInvalidInput, field, err)
		}
		doc[field] = encoded
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode merged record: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: merged record: %w", domain.ErrInvalidInput, err)
	}
	return out, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Patch turns a whole record into an Update patch carrying every field.
func Patch(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode patch: %w", err)
	}
	patch := make(map[string]any)
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, fmt.Errorf("docstore: decode patch: %w", err)
	}
	return patch, nil
}
