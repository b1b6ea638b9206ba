package natives

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"loxgo/internal/object"
)

// RegisterDB installs db_open/db_query/db_exec/db_close, grounded on
// internal/foreign/slug_io_db.go's handle-table approach: connections
// are kept in a package-level map keyed by an incrementing handle
// number, since Lox values have no notion of an opaque pointer.
func RegisterDB(env *object.Environment) {
	env.Define("db_open", native("db_open", 2, func(args []object.Object) (object.Object, error) {
		driver, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("db_open expects a driver name string")
		}
		dsn, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("db_open expects a DSN string")
		}

		db, err := sql.Open(driver.Value, dsn.Value)
		if err != nil {
			return nil, fmt.Errorf("db_open: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("db_open: ping: %w", err)
		}

		handle := nextHandle.Add(1)
		connections[handle] = db
		return &object.Number{Value: float64(handle)}, nil
	}))

	env.Define("db_query", native("db_query", 2, func(args []object.Object) (object.Object, error) {
		db, err := handleDB(args[0])
		if err != nil {
			return nil, err
		}
		query, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("db_query expects a SQL string")
		}

		rows, err := db.Query(query.Value)
		if err != nil {
			return nil, fmt.Errorf("db_query: %w", err)
		}
		defer rows.Close()
		return renderRows(rows)
	}))

	env.Define("db_exec", native("db_exec", 2, func(args []object.Object) (object.Object, error) {
		db, err := handleDB(args[0])
		if err != nil {
			return nil, err
		}
		stmt, ok := args[1].(*object.String)
		if !ok {
			return nil, fmt.Errorf("db_exec expects a SQL string")
		}

		result, err := db.Exec(stmt.Value)
		if err != nil {
			return nil, fmt.Errorf("db_exec: %w", err)
		}
		affected, _ := result.RowsAffected()
		return &object.Number{Value: float64(affected)}, nil
	}))

	env.Define("db_close", native("db_close", 1, func(args []object.Object) (object.Object, error) {
		n, ok := args[0].(*object.Number)
		if !ok {
			return nil, fmt.Errorf("db_close expects a handle number")
		}
		handle := int64(n.Value)
		db, ok := connections[handle]
		if !ok {
			return nil, fmt.Errorf("db_close: unknown handle")
		}
		delete(connections, handle)
		if err := db.Close(); err != nil {
			return nil, fmt.Errorf("db_close: %w", err)
		}
		return object.NIL, nil
	}))
}

var (
	nextHandle  atomic.Int64
	connections = map[int64]*sql.DB{}
)

func handleDB(arg object.Object) (*sql.DB, error) {
	n, ok := arg.(*object.Number)
	if !ok {
		return nil, fmt.Errorf("expected a db handle number")
	}
	db, ok := connections[int64(n.Value)]
	if !ok {
		return nil, fmt.Errorf("unknown db handle")
	}
	return db, nil
}

// renderRows has no Lox list type to build (see internal/object's value
// model), so a result set becomes a Table instance: "count" plus one
// field per row named "0", "1", ... each itself a Table of column name
// to value, scanned generically the way slug_io_db.go's renderRows does.
func renderRows(rows *sql.Rows) (object.Object, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db_query: reading columns: %w", err)
	}

	fields := map[string]object.Object{}
	count := 0
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("db_query: scanning row: %w", err)
		}

		rowFields := map[string]object.Object{}
		for i, col := range columns {
			rowFields[col] = sqlValue(values[i])
		}
		fields[fmt.Sprintf("%d", count)] = table(rowFields)
		count++
	}
	fields["count"] = &object.Number{Value: float64(count)}
	return table(fields), nil
}

func sqlValue(v any) object.Object {
	switch x := v.(type) {
	case nil:
		return object.NIL
	case int64:
		return &object.Number{Value: float64(x)}
	case float64:
		return &object.Number{Value: x}
	case bool:
		return object.NativeBoolToBoolean(x)
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	default:
		return &object.String{Value: fmt.Sprintf("%v", x)}
	}
}
