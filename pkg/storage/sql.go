package storage

import (
	"fmt"
	"strings"
	"time"
)

// Dialect captures the SQL differences between backends for WhereClause.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Contains renders a substring test of the content column against a
	// bound parameter.
	Contains func(param string) string

	// TimeValue converts a timestamp to the driver's bind value.
	TimeValue func(t time.Time) interface{}
}

var (
	// SQLiteDialect stores timestamps as unix nanoseconds.
	SQLiteDialect = Dialect{
		Placeholder: func(int) string { return "?" },
		Contains:    func(p string) string { return "instr(content, " + p + ") > 0" },
		TimeValue:   func(t time.Time) interface{} { return t.UnixNano() },
	}

	// PostgresDialect uses $n placeholders and TIMESTAMPTZ columns.
	PostgresDialect = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Contains:    func(p string) string { return "strpos(content, " + p + ") > 0" },
		TimeValue:   func(t time.Time) interface{} { return t.UTC() },
	}

	// MySQLDialect covers OceanBase in MySQL mode.
	MySQLDialect = Dialect{
		Placeholder: func(int) string { return "?" },
		Contains:    func(p string) string { return "INSTR(document, " + p + ") > 0" },
		TimeValue:   func(t time.Time) interface{} { return t.UTC() },
	}
)

// WhereClause builds a WHERE clause for agentID and the SQL-checkable parts of
// f (importance range, creation range, content substring). Metadata
// conditions are left to Filter.MatchMetadata. argOffset is the number of
// parameters already bound before the clause.
func WhereClause(d Dialect, agentID string, f *Filter, argOffset int) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return d.Placeholder(argOffset + len(args))
	}

	if agentID != "" {
		conditions = append(conditions, "agent_id = "+next(agentID))
	}
	if f != nil {
		if f.MinImportance != nil {
			conditions = append(conditions, "importance >= "+next(*f.MinImportance))
		}
		if f.MaxImportance != nil {
			conditions = append(conditions, "importance <= "+next(*f.MaxImportance))
		}
		if f.CreatedAfter != nil {
			conditions = append(conditions, "created_at >= "+next(d.TimeValue(*f.CreatedAfter)))
		}
		if f.CreatedBefore != nil {
			conditions = append(conditions, "created_at < "+next(d.TimeValue(*f.CreatedBefore)))
		}
		if f.ContentContains != "" {
			conditions = append(conditions, d.Contains(next(f.ContentContains)))
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// InClause renders "(p1, p2, ...)" for ids, continuing after argOffset.
func InClause(d Dialect, ids []int64, argOffset int) (string, []interface{}) {
	parts := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		parts[i] = d.Placeholder(argOffset + i + 1)
		args[i] = id
	}
	return "(" + strings.Join(parts, ", ") + ")", args
}
