package store

import (
	"fmt"
	"strings"

	"github.com/phrazzld/task-api/internal/domain"
)

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection returns Desc for any casing of "desc" and Asc otherwise.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Criterion is an equality predicate on a task field. A nil Value matches
// NULL.
type Criterion struct {
	Field string
	Value any
}

// OrderKey orders results by a task field.
type OrderKey struct {
	Field     string
	Direction Direction
}

// TaskQuery selects tasks. Criteria are ANDed; Order keys apply in turn.
// Zero Limit or Offset means no window on that side.
type TaskQuery struct {
	Criteria []Criterion
	Order    []OrderKey
	Limit    int
	Offset   int
}

// TaskColumns is the select list shared by every task query, in scan order.
const TaskColumns = "id, owner_id, title, description, due_at, priority, position, status, created_at, updated_at"

// taskFieldColumns is the allow-list of queryable fields. Column names are
// only ever taken from here.
var taskFieldColumns = map[string]string{
	"id":          "id",
	"ownerId":     "owner_id",
	"title":       "title",
	"description": "description",
	"dueAt":       "due_at",
	"priority":    "priority",
	"position":    "position",
	"status":      "status",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// TaskFieldColumn maps a field name to its column.
func TaskFieldColumn(field string) (string, bool) {
	col, ok := taskFieldColumns[field]
	return col, ok
}

// priorityRankExpr orders priorities semantically; it takes the three
// priority names as arguments, highest rank first.
const priorityRankExpr = "CASE priority WHEN ? THEN 3 WHEN ? THEN 2 WHEN ? THEN 1 ELSE 0 END"

// BuildTaskQuery renders q as a SELECT over tasks for dialect d.
func BuildTaskQuery(d Dialect, q TaskQuery) (string, []any, error) {
	var b strings.Builder
	args := make([]any, 0, len(q.Criteria)+5)

	b.WriteString("SELECT ")
	b.WriteString(TaskColumns)
	b.WriteString(" FROM tasks")

	for i, c := range q.Criteria {
		col, ok := TaskFieldColumn(c.Field)
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if c.Value == nil {
			b.WriteString(col + " IS NULL")
			continue
		}
		b.WriteString(col + " = ?")
		args = append(args, c.Value)
	}

	for i, o := range q.Order {
		col, ok := TaskFieldColumn(o.Field)
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownField, o.Field)
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		if o.Field == "priority" {
			b.WriteString(priorityRankExpr)
			args = append(args,
				domain.PriorityHigh.String(),
				domain.PriorityMedium.String(),
				domain.PriorityLow.String(),
			)
		} else {
			b.WriteString(col)
		}
		b.WriteString(" ")
		b.WriteString(string(ParseDirection(string(o.Direction))))
	}

	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	case q.Offset > 0:
		b.WriteString(" LIMIT " + d.UnboundedLimit())
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, q.Offset)
	}

	return d.Rebind(b.String()), args, nil
}
