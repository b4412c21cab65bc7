package expr

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `pathBase` returns the last element of the path.
		// Example: pathBase(dir) == "app".
		cel.Function("pathBase",
			cel.Overload("path_base", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathBase", filepath.Base)),
			),
		),

		// `pathDir` returns all but the last element of the path.
		cel.Function("pathDir",
			cel.Overload("path_dir", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathDir", filepath.Dir)),
			),
		),

		// `pathExt` returns the file extension of the path.
		cel.Function("pathExt",
			cel.Overload("path_ext", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(stringFunc("pathExt", filepath.Ext)),
			),
		),

		// `pathJoin` joins two path elements.
		// Example: fileExists(pathJoin(dir, "README.md")).
		cel.Function("pathJoin",
			cel.Overload("path_join", []*cel.Type{cel.StringType, cel.StringType}, cel.StringType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					as, ok := a.(types.String)
					if !ok {
						return types.NewErr("pathJoin: invalid string value")
					}

					bs, ok := b.(types.String)
					if !ok {
						return types.NewErr("pathJoin: invalid string value")
					}

					return types.String(filepath.Join(string(as), string(bs)))
				}),
			),
		),

		// `fileExists` reports whether path names a regular file.
		cel.Function("fileExists",
			cel.Overload("file_exists", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					p, ok := path.(types.String)
					if !ok {
						return types.NewErr("fileExists: invalid string value")
					}

					info, err := os.Stat(string(p))

					return types.Bool(err == nil && info.Mode().IsRegular())
				}),
			),
		),

		// `yamlPath` reads a YAML (or JSON) file and extracts a value using a
		// YAML path. Returns null if the file or path can't be read.
		// Example: yamlPath(pathJoin(dir, "tsconfig.json"), "$.compilerOptions.jsx") == "react-jsx".
		cel.Function("yamlPath",
			cel.Overload("yaml_path", []*cel.Type{cel.StringType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(filePath, yamlPathExpr ref.Val) ref.Val {
					filePathStr, ok := filePath.(types.String)
					if !ok {
						return types.NewErr("yamlPath: invalid file path")
					}

					yamlPathStr, ok := yamlPathExpr.(types.String)
					if !ok {
						return types.NewErr("yamlPath: invalid yaml path")
					}

					return readYAMLPath(string(filePathStr), string(yamlPathStr))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

func stringFunc(name string, fn func(string) string) func(ref.Val) ref.Val {
	return func(v ref.Val) ref.Val {
		s, ok := v.(types.String)
		if !ok {
			return types.NewErr("%s: invalid string value", name)
		}

		return types.String(fn(string(s)))
	}
}

//nolint:ireturn // Following CEL's function signature.
func readYAMLPath(file, pathExpr string) ref.Val {
	logger := slog.With(
		slog.String("file", file),
		slog.String("yamlPath", pathExpr),
	)

	content, err := os.ReadFile(file) //nolint:gosec // G304: Paths come from policy expressions.
	if err != nil {
		logger.Debug("read file, returning null", slog.Any("error", err))

		return types.NullValue
	}

	path, err := yaml.PathString(pathExpr)
	if err != nil {
		logger.Debug("invalid YAML path, returning null", slog.Any("error", err))

		return types.NullValue
	}

	var value any

	err = path.Read(bytes.NewReader(content), &value)
	if err != nil {
		logger.Debug("extract value, returning null", slog.Any("error", err))

		return types.NullValue
	}

	return ConvertToCELValue(value)
}

// ConvertToCELValue converts a decoded YAML or JSON value to a CEL value.
// Unsupported types become null.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue
	case bool:
		return types.Bool(v)
	case int:
		return types.Int(v)
	case int64:
		return types.Int(v)
	case uint64:
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))
	case float64:
		return types.Double(v)
	case string:
		return types.String(v)
	case []any:
		vals := make([]ref.Val, len(v))
		for i, item := range v {
			vals[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, vals)
	case map[string]any:
		m := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			m[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, m)
	case map[any]any:
		m := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			m[ConvertToCELValue(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, m)
	}

	return types.NullValue
}
