package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RawJSON stores an opaque JSON payload verbatim. A nil value is persisted
// as NULL and rendered as JSON null.
type RawJSON []byte

// NewRawJSON returns nil for empty or literal-null payloads.
func NewRawJSON(raw []byte) RawJSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return RawJSON(append([]byte(nil), trimmed...))
}

// MustRawJSON marshals v; it is meant for payloads built in code.
func MustRawJSON(v any) RawJSON {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal metadata: %v", err))
	}
	return NewRawJSON(b)
}

// Value implements driver.Valuer.
func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = NewRawJSON(v)
	case string:
		*j = NewRawJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
	return nil
}

func (j RawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *RawJSON) UnmarshalJSON(data []byte) error {
	*j = NewRawJSON(data)
	return nil
}
