package natives

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"loxgo/internal/object"
)

// RegisterConfig installs load_toml, mirroring how the CLI itself loads
// lox.toml (see internal/util.Configuration) but exposed to scripts.
func RegisterConfig(env *object.Environment) {
	env.Define("load_toml", native("load_toml", 1, func(args []object.Object) (object.Object, error) {
		path, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("load_toml expects a path string")
		}

		var doc map[string]any
		if _, err := toml.DecodeFile(path.Value, &doc); err != nil {
			return nil, fmt.Errorf("load_toml: %w", err)
		}
		return tomlValue(doc), nil
	}))
}

// tomlValue converts a decoded TOML value into the Lox value model: a
// nested map becomes a Table instance, a slice becomes a Table with a
// "count" field and "0", "1", ... fields, anything else maps onto
// nil/bool/number/string directly.
func tomlValue(v any) object.Object {
	switch x := v.(type) {
	case map[string]any:
		fields := make(map[string]object.Object, len(x))
		for k, val := range x {
			fields[k] = tomlValue(val)
		}
		return table(fields)
	case []map[string]any:
		fields := make(map[string]object.Object, len(x)+1)
		for i, val := range x {
			fields[fmt.Sprintf("%d", i)] = tomlValue(val)
		}
		fields["count"] = &object.Number{Value: float64(len(x))}
		return table(fields)
	case []any:
		fields := make(map[string]object.Object, len(x)+1)
		for i, val := range x {
			fields[fmt.Sprintf("%d", i)] = tomlValue(val)
		}
		fields["count"] = &object.Number{Value: float64(len(x))}
		return table(fields)
	case string:
		return &object.String{Value: x}
	case bool:
		return object.NativeBoolToBoolean(x)
	case int64:
		return &object.Number{Value: float64(x)}
	case float64:
		return &object.Number{Value: x}
	case nil:
		return object.NIL
	default:
		return &object.String{Value: fmt.Sprintf("%v", x)}
	}
}
