// Package query implements the generic listing pipeline shared by every
// resource collection: it parses raw query-string parameters into a typed
// filter grammar, lowers that grammar to a MongoDB filter document, and runs
// a counted, sorted, field-selected, paginated find.
//
// Grammar:
//   - Reserved control keys: select, sort, page, limit. Everything else is a
//     filter condition.
//   - A key of the form field[op] applies a comparator; supported operators
//     are gt, gte, lt, lte, and in. Unknown operators are dropped rather than
//     forwarded to the storage engine. A bare key means equality.
//   - select is a comma-separated projection list; sort is a comma-separated
//     field list where a leading '-' means descending (default: -createdAt).
//   - page defaults to 1 and limit to 25; malformed or non-positive numbers
//     fall back to the defaults instead of failing the request.
package query

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size applied when the caller does not supply one.
const DefaultLimit = 25

// Op is a comparison operator in the filter grammar.
type Op string

// Supported operators. OpEq is the implicit operator for bare keys.
const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// Condition is one filter predicate: field op value.
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

// Options is the parsed form of a listing request.
type Options struct {
	Conditions []Condition
	Select     []string
	Sort       []string // field names, '-' prefix = descending
	Page       int
	Limit      int
}

// Page describes an adjacent page in the pagination envelope.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination is the envelope returned alongside every listed page. Total
// reflects the filter but not the pagination window.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Next  *Page `json:"next,omitempty"`
	Prev  *Page `json:"prev,omitempty"`
}

// Collection is the narrow slice of *mongo.Collection the pipeline needs.
type Collection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Parse partitions raw query parameters into control options and filter
// conditions. It never fails: unparsable numbers fall back to defaults and
// unknown operators are discarded.
func Parse(values url.Values) Options {
	o := Options{Page: 1, Limit: DefaultLimit}

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		v := vals[0]

		switch key {
		case "select":
			o.Select = splitList(v)
			continue
		case "sort":
			o.Sort = splitList(v)
			continue
		case "page":
			o.Page = atoiMin(v, 1, 1)
			continue
		case "limit":
			o.Limit = atoiMin(v, DefaultLimit, 1)
			continue
		}

		field, op, ok := splitKey(key)
		if !ok {
			continue // unrecognized operator suffix
		}
		if op == OpIn {
			o.Conditions = append(o.Conditions, Condition{Field: field, Op: op, Value: coerceList(v)})
			continue
		}
		o.Conditions = append(o.Conditions, Condition{Field: field, Op: op, Value: coerce(v)})
	}
	return o
}

// Filter lowers the parsed conditions onto base. Keys present in base are
// authoritative and cannot be overridden by caller-supplied conditions.
func (o Options) Filter(base bson.M) bson.M {
	filter := bson.M{}
	for _, c := range o.Conditions {
		if c.Op == OpEq {
			filter[c.Field] = c.Value
			continue
		}
		m, ok := filter[c.Field].(bson.M)
		if !ok {
			m = bson.M{}
			filter[c.Field] = m
		}
		m["$"+string(c.Op)] = c.Value
	}
	for k, v := range base {
		filter[k] = v
	}
	return filter
}

// FindOptions builds the driver options for the page fetch: projection, sort,
// skip and limit.
func (o Options) FindOptions() *options.FindOptions {
	fo := options.Find()

	if len(o.Select) > 0 {
		proj := bson.M{}
		for _, f := range o.Select {
			proj[f] = 1
		}
		fo.SetProjection(proj)
	}

	sort := bson.D{}
	for _, f := range o.Sort {
		if strings.HasPrefix(f, "-") {
			sort = append(sort, bson.E{Key: strings.TrimPrefix(f, "-"), Value: -1})
		} else {
			sort = append(sort, bson.E{Key: f, Value: 1})
		}
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	fo.SetSort(sort)

	fo.SetSkip(int64(o.Skip()))
	fo.SetLimit(int64(o.Limit))
	return fo
}

// Skip returns the number of documents preceding the requested page.
func (o Options) Skip() int { return (o.Page - 1) * o.Limit }

// Envelope computes the pagination metadata for a total count of matching
// documents.
func (o Options) Envelope(total int64) Pagination {
	p := Pagination{Total: total, Page: o.Page, Limit: o.Limit}
	if int64(o.Skip()+o.Limit) < total {
		p.Next = &Page{Page: o.Page + 1, Limit: o.Limit}
	}
	if o.Page > 1 {
		p.Prev = &Page{Page: o.Page - 1, Limit: o.Limit}
	}
	return p
}

// Run executes the pipeline against coll: it counts all documents matching
// the lowered filter, fetches at most Limit documents starting at Skip, and
// decodes them into out (a pointer to a slice). The returned envelope's Total
// is independent of the pagination window.
func (o Options) Run(ctx context.Context, coll Collection, base bson.M, out interface{}) (Pagination, error) {
	filter := o.Filter(base)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return Pagination{}, err
	}

	cur, err := coll.Find(ctx, filter, o.FindOptions())
	if err != nil {
		return Pagination{}, err
	}
	if err := cur.All(ctx, out); err != nil {
		return Pagination{}, err
	}
	return o.Envelope(total), nil
}

// splitKey decomposes "field[op]" into its parts. Bare keys are equality.
// The ok result is false when the bracket syntax names an unsupported
// operator.
func splitKey(key string) (field string, op Op, ok bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq, true
	}
	field = key[:open]
	switch Op(key[open+1 : len(key)-1]) {
	case OpGt:
		return field, OpGt, true
	case OpGte:
		return field, OpGte, true
	case OpLt:
		return field, OpLt, true
	case OpLte:
		return field, OpLte, true
	case OpIn:
		return field, OpIn, true
	default:
		return field, OpEq, false
	}
}

// coerce converts a raw query value into the most specific type the storage
// engine can compare: float64, bool, or string.
func coerce(v string) interface{} {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// coerceList coerces each element of a comma-separated value for $in.
func coerceList(v string) []interface{} {
	parts := splitList(v)
	out := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		out = append(out, coerce(p))
	}
	return out
}

// splitList splits a comma-separated value, dropping empty elements.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// atoiMin parses v as an int, substituting def when parsing fails or the
// value is below min.
func atoiMin(v string, def, min int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	return n
}
