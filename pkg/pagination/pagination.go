package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	cursorPrefix = "id:"
)

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params is a keyset page request over rows ordered by descending id.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the id of the last row on the previous page.
type Cursor struct {
	ID int64
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit for
// non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func EncodeCursor(cursor Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(cursor.ID, 10)))
}

// ParseCursor decodes value. A blank value means the first page and yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	raw, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: id}, nil
}

// Scope applies the keyset filter, id ordering and a limit one past the page
// size so Page can tell whether more rows exist.
func (p Params) Scope() (func(*gorm.DB) *gorm.DB, error) {
	cursor, err := ParseCursor(p.Cursor)
	if err != nil {
		return nil, err
	}
	limit := NormalizeLimit(p.Limit)
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where("id < ?", cursor.ID)
		}
		return db.Order("id DESC").Limit(limit + 1)
	}, nil
}

// Page trims rows fetched through Scope to the page size and returns the
// cursor for the next page, empty on the last page.
func Page[T any](rows []T, limit int, id func(T) int64) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(Cursor{ID: id(rows[limit-1])})
}
