package querysql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when a filter names a field its table lacks.
var ErrUnknownField = errors.New("unknown field")

// ColumnType is the value type a column accepts in filters.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Boolean // INTEGER 0/1, bound as a Go bool
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	default:
		return "text"
	}
}

// Column maps a public field name to its SQL column.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes one queryable dispatch log table.
//
// OrderBy is appended to every query so results are deterministic. It must
// end in a unique key.
type Table struct {
	Name    string
	Fields  map[string]Column
	OrderBy string
}

// Predicate is a row filter.
type Predicate interface {
	isPredicate()
}

// Equals matches rows whose field equals Value. Value must be a string,
// int, int64 or bool matching the column type.
type Equals struct {
	Field string
	Value any
}

// And matches rows that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (Equals) isPredicate() {}
func (And) isPredicate()    {}

// Select reads Fields from a table, optionally filtered.
type Select struct {
	From   Table
	Fields []string
	Filter Predicate
}

// EngineFilter matches rows for one engine, or every row when name is
// empty.
func EngineFilter(name string) Predicate {
	if name == "" {
		return nil
	}
	return Equals{Field: "engine", Value: name}
}

// Compile converts a Select to parameterized SQL for SQLite.
// Every query carries the table's ORDER BY. Values are always bound as
// parameters, never interpolated.
func Compile(q Select) (string, []any, error) {
	if q.From.Name == "" {
		return "", nil, fmt.Errorf("select has no table")
	}
	if q.From.OrderBy == "" {
		return "", nil, fmt.Errorf("table %s has no stable order", q.From.Name)
	}
	if len(q.Fields) == 0 {
		return "", nil, fmt.Errorf("select from %s has no fields", q.From.Name)
	}

	columns := make([]string, len(q.Fields))
	for i, field := range q.Fields {
		col, err := q.From.column(field)
		if err != nil {
			return "", nil, err
		}
		columns[i] = col.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), q.From.Name)

	var params []any
	if q.Filter != nil {
		where, p, err := compilePredicate(q.From, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(q.From.OrderBy)
	return b.String(), params, nil
}

func (t Table) column(field string) (Column, error) {
	col, ok := t.Fields[field]
	if !ok {
		return Column{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t.Name, field)
	}
	return col, nil
}

func compilePredicate(t Table, p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(t, pred)
	case *Equals:
		return compileEquals(t, *pred)
	case And:
		return compileAnd(t, pred)
	case *And:
		return compileAnd(t, *pred)
	case nil:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(t Table, eq Equals) (string, []any, error) {
	col, err := t.column(eq.Field)
	if err != nil {
		return "", nil, err
	}
	param, err := toParam(col, eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %q: %w", eq.Field, err)
	}
	return col.Name + " = ?", []any{param}, nil
}

func compileAnd(t Table, and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(t, pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func toParam(col Column, v any) (any, error) {
	switch col.Type {
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Integer:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("want %s value, got %T", col.Type, v)
}

// ParseFilter parses "field=value" terms into a conjunction over t.
// Values are converted to the column type; booleans also accept + and -.
// No terms yields a nil predicate.
func ParseFilter(t Table, terms []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(terms))
	for _, term := range terms {
		field, raw, ok := strings.Cut(term, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: want field=value", term)
		}
		col, err := t.column(field)
		if err != nil {
			return nil, err
		}
		value, err := parseValue(col.Type, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", term, err)
		}
		preds = append(preds, Equals{Field: field, Value: value})
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	default:
		return And{Predicates: preds}, nil
	}
}

func parseValue(typ ColumnType, raw string) (any, error) {
	switch typ {
	case Integer:
		return strconv.ParseInt(raw, 10, 64)
	case Boolean:
		switch raw {
		case "+":
			return true, nil
		case "-":
			return false, nil
		}
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
