package postgres

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector marshals a float32 slice to and from the pgvector text format
// ("[0.1,0.2,...]").
type Vector []float32

var (
	_ driver.Valuer = (Vector)(nil)
	_ fmt.Stringer  = (Vector)(nil)
)

func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

func (v *Vector) Scan(src any) error {
	var s string
	switch t := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return fmt.Errorf("unsupported vector source type %T", src)
	}

	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		*v = Vector{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}
