package store

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type condition struct {
	column string
	op     string
	value  any
}

type ordering struct {
	column string
	desc   bool
}

type embed struct {
	relation string
	columns  []string
}

// Query is an immutable description of a filtered, ordered, windowed read.
// Column names come from code, never from request input.
type Query struct {
	conds  []condition
	orders []ordering
	embeds []embed
	offset int
	limit  int
}

func Q() Query { return Query{} }

func (q Query) where(c condition) Query {
	conds := make([]condition, len(q.conds), len(q.conds)+1)
	copy(conds, q.conds)
	q.conds = append(conds, c)
	return q
}

func (q Query) Eq(column string, value any) Query {
	return q.where(condition{column: column, op: "=", value: value})
}

func (q Query) Neq(column string, value any) Query {
	return q.where(condition{column: column, op: "<>", value: value})
}

func (q Query) In(column string, values any) Query {
	return q.where(condition{column: column, op: "IN", value: values})
}

func (q Query) IsNull(column string) Query {
	return q.where(condition{column: column, op: "IS NULL"})
}

func (q Query) Order(column string, desc bool) Query {
	orders := make([]ordering, len(q.orders), len(q.orders)+1)
	copy(orders, q.orders)
	q.orders = append(orders, ordering{column: column, desc: desc})
	return q
}

// Range selects rows [offset, offset+limit).
func (q Query) Range(offset, limit int) Query {
	q.offset = offset
	q.limit = limit
	return q
}

// With embeds a relation. When columns are given only those are loaded,
// which keeps private fields of related profiles out of public payloads.
func (q Query) With(relation string, columns ...string) Query {
	embeds := make([]embed, len(q.embeds), len(q.embeds)+1)
	copy(embeds, q.embeds)
	q.embeds = append(embeds, embed{relation: relation, columns: columns})
	return q
}

func (q Query) applyFilters(db *gorm.DB) *gorm.DB {
	for _, c := range q.conds {
		switch c.op {
		case "IS NULL":
			db = db.Where(c.column + " IS NULL")
		case "IN":
			db = db.Where(c.column+" IN ?", c.value)
		default:
			db = db.Where(fmt.Sprintf("%s %s ?", c.column, c.op), c.value)
		}
	}
	return db
}

func (q Query) apply(db *gorm.DB) *gorm.DB {
	db = q.applyFilters(db)
	for _, o := range q.orders {
		dir := " ASC"
		if o.desc {
			dir = " DESC"
		}
		db = db.Order(o.column + dir)
	}
	for _, e := range q.embeds {
		if len(e.columns) == 0 {
			db = db.Preload(e.relation)
			continue
		}
		cols := e.columns
		db = db.Preload(e.relation, func(tx *gorm.DB) *gorm.DB {
			return tx.Select(cols)
		})
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	return db
}

// Key fingerprints the query for cache lookups.
func (q Query) Key() string {
	var b strings.Builder
	for _, c := range q.conds {
		fmt.Fprintf(&b, "w:%s%s%v;", c.column, c.op, c.value)
	}
	for _, o := range q.orders {
		fmt.Fprintf(&b, "o:%s:%t;", o.column, o.desc)
	}
	for _, e := range q.embeds {
		fmt.Fprintf(&b, "e:%s%v;", e.relation, e.columns)
	}
	fmt.Fprintf(&b, "r:%d:%d", q.offset, q.limit)
	return b.String()
}
