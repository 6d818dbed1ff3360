package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
)

// FieldMapperTransform renames top-level fields. Unmapped fields are kept.
//
//	p.AddTransform(FieldMapperTransform(map[string]string{"name": "full_name"}))
func FieldMapperTransform(mapping map[string]string) Transform {
	return func(_ context.Context, record *pool.Record) (*pool.Record, error) {
		if record.Data == nil || len(mapping) == 0 {
			return record, nil
		}

		newData := make(map[string]interface{}, len(record.Data))
		for field, value := range record.Data {
			if renamed, ok := mapping[field]; ok {
				newData[renamed] = value
				continue
			}
			newData[field] = value
		}

		record.Data = newData
		return record, nil
	}
}

// FilterTransform keeps only records for which predicate returns true.
func FilterTransform(predicate func(*pool.Record) bool) Transform {
	return func(_ context.Context, record *pool.Record) (*pool.Record, error) {
		if predicate(record) {
			return record, nil
		}
		return nil, nil
	}
}

// SelectFieldsTransform drops every top-level field not listed.
func SelectFieldsTransform(fields []string) Transform {
	keep := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		keep[f] = struct{}{}
	}
	return func(_ context.Context, record *pool.Record) (*pool.Record, error) {
		for field := range record.Data {
			if _, ok := keep[field]; !ok {
				delete(record.Data, field)
			}
		}
		return record, nil
	}
}

// FieldEquals returns a predicate matching records whose top-level field
// renders as value. Nested fields are addressed with dots, e.g.
// "origin.name".
func FieldEquals(field, value string) func(*pool.Record) bool {
	path := strings.Split(field, ".")
	return func(record *pool.Record) bool {
		var current interface{} = record.Data
		for _, part := range path {
			m, ok := current.(map[string]interface{})
			if !ok {
				return false
			}
			if current, ok = m[part]; !ok {
				return false
			}
		}
		if current == nil {
			return false
		}
		return fmt.Sprint(current) == value
	}
}

// ParseMapping parses "old=new" pairs into a rename mapping.
func ParseMapping(pairs []string) (map[string]string, error) {
	mapping := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		from, to, ok := strings.Cut(pair, "=")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid mapping %q, expected old=new", pair)
		}
		mapping[from] = to
	}
	return mapping, nil
}
