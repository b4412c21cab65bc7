package expr

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Variable names bound for every package.
const (
	VarName      = "name"
	VarDir       = "dir"
	VarAttrs     = "attrs"
	VarDeps      = "deps"
	VarPeers     = "peers"
	VarDevs      = "devs"
	VarExternals = "externals"
	VarManifest  = "manifest"
)

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment] with the package variables and
// helper functions declared. opts are appended.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(PackageVariables(), opts...)
	opts = append(opts, cel.Lib(&lib{}))

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// PackageVariables declares the per-package variables.
func PackageVariables() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Variable(VarName, cel.StringType),
		cel.Variable(VarDir, cel.StringType),
		cel.Variable(VarAttrs, cel.ListType(cel.StringType)),
		cel.Variable(VarDeps, cel.ListType(cel.StringType)),
		cel.Variable(VarPeers, cel.ListType(cel.StringType)),
		cel.Variable(VarDevs, cel.ListType(cel.StringType)),
		cel.Variable(VarExternals, cel.ListType(cel.StringType)),
		cel.Variable(VarManifest, cel.MapType(cel.StringType, cel.DynType)),
	}
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// ErrResultType is returned when an expression yields an unexpected type.
var ErrResultType = errors.New("unexpected result type")

// Eval runs program with vars.
//
//nolint:ireturn // Following CEL's function signature.
func Eval(program cel.Program, vars map[string]any) (ref.Val, error) {
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}

	return out, nil
}

// EvalBool runs program and requires a bool result.
func EvalBool(program cel.Program, vars map[string]any) (bool, error) {
	out, err := Eval(program, vars)
	if err != nil {
		return false, err
	}

	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w: want bool, got %s", ErrResultType, out.Type().TypeName())
	}

	return bool(b), nil
}

// AsStrings converts a CEL list of strings to a Go slice.
func AsStrings(v ref.Val) ([]string, error) {
	native, err := v.ConvertToNative(reflect.TypeFor[[]string]())
	if err != nil {
		return nil, fmt.Errorf("%w: want list<string>, got %s", ErrResultType, v.Type().TypeName())
	}

	s, ok := native.([]string)
	if !ok {
		return nil, fmt.Errorf("%w: want list<string>", ErrResultType)
	}

	return s, nil
}

var (
	defaultEnvOnce sync.Once
	defaultEnv     *Environment
)

// Default returns a shared [Environment] with no extra options.
func Default() *Environment {
	defaultEnvOnce.Do(func() {
		defaultEnv = MustNewEnvironment()
	})

	return defaultEnv
}
