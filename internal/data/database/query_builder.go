// Package database builds parameterized SELECT statements from option lists.
// Identifiers are quoted with pgx.Identifier; values are always bound as
// positional parameters.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	// Any matches a column against a slice bound as one array parameter.
	Any    ConditionType = "ANY"
	Custom ConditionType = "CUSTOM"

	unset = -1
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery string
	params   []any
}

// WhereCond compares a column with a bound value.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // panic prevents misuse; custom conditions must provide raw SQL via WhereRawCond.
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond embeds a raw SQL fragment. Its $1..$n placeholders refer to
// params and are renumbered to fit the surrounding query; a placeholder may
// repeat.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{Type: Custom, rawQuery: rawQuery, params: params}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  unset,
		Offset: unset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition adds a single condition. Conditions are ANDed.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly selects COUNT(*) instead of columns.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) {
		o.CountOnly = true
	}
}

// quoteIdent quotes a possibly qualified identifier such as "table.column".
func quoteIdent(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery constructs a SQL query string and arguments from options.
//
//	query, args := BuildListQuery(NewListQueryOptions("jobs",
//		WithColumns("id", "owner"),
//		WithCondition(WhereCond("owner", Equal, "alice")),
//		WithCondition(WhereCond("service", Any, []string{"a", "b"})),
//		WithCondition(WhereRawCond("(owner = $1 OR $1 = ANY (shared))", "alice")),
//		WithOrderBy("id", "ASC"),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	switch {
	case options.CountOnly:
		query.WriteString("SELECT COUNT(*)")
	case len(options.Columns) == 0:
		query.WriteString("SELECT *")
	default:
		cols := make([]string, len(options.Columns))
		for i, c := range options.Columns {
			cols[i] = quoteIdent(c)
		}
		query.WriteString("SELECT " + strings.Join(cols, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(quoteIdent(options.Table))

	where, args := buildWhereClause(options.Conditions)
	if where != "" {
		query.WriteString(" WHERE ")
		query.WriteString(where)
	}
	if options.CountOnly {
		return query.String(), args
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(quoteIdent(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" " + dir)
		}
	}
	if options.Limit != unset {
		args = append(args, options.Limit)
		query.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if options.Offset != unset {
		args = append(args, options.Offset)
		query.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return query.String(), args
}

func buildWhereClause(conds []Condition) (string, []any) {
	parts := make([]string, 0, len(conds))
	args := []any{}
	for _, cond := range conds {
		var part string
		part, args = renderCondition(cond, args)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " AND "), args
}

// renderCondition renders cond with its parameters numbered after args.
func renderCondition(cond Condition, args []any) (string, []any) {
	switch cond.Type {
	case Custom:
		return renderRaw(cond, args)
	case Any:
		if cond.Field == "" {
			return "", args
		}
		rv := reflect.ValueOf(cond.Value)
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return "", args
		}
		args = append(args, cond.Value)
		return fmt.Sprintf("%s = ANY ($%d)", quoteIdent(cond.Field), len(args)), args
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual:
		if cond.Field == "" {
			return "", args
		}
		args = append(args, cond.Value)
		return fmt.Sprintf("%s %s $%d", quoteIdent(cond.Field), cond.Type, len(args)), args
	}
	return "", args
}

func renderRaw(cond Condition, args []any) (string, []any) {
	if cond.rawQuery == "" {
		return "", args
	}
	renumbered := make(map[int]int)
	out := placeholderRe.ReplaceAllStringFunc(cond.rawQuery, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(cond.params) {
			return m
		}
		if _, ok := renumbered[n]; !ok {
			args = append(args, cond.params[n-1])
			renumbered[n] = len(args)
		}
		return "$" + strconv.Itoa(renumbered[n])
	})
	return out, args
}
