package mapper

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprPrefix marks a string as an expression transform in rule files.
const ExprPrefix = "expr:"

// Transform computes a target value from the values resolved for a rule's
// source paths, in path order.
type Transform interface {
	// Arity is the number of arguments Apply expects, or -1 for any.
	Arity() int
	Apply(args []any) (any, error)
}

// TransformFunc adapts a variadic function into a Transform of any arity.
type TransformFunc func(args ...any) (any, error)

func (f TransformFunc) Arity() int { return -1 }

func (f TransformFunc) Apply(args []any) (any, error) { return f(args...) }

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type funcTransform struct {
	fn reflect.Value
}

// Func wraps an arbitrary Go function as a Transform. The function may take
// typed parameters; it must return one value, or a value and an error.
//
//	mapper.Func(func(first, last string) string { return first + " " + last })
func Func(fn any) (Transform, error) {
	if t, ok := fn.(Transform); ok {
		return t, nil
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	t := v.Type()
	switch t.NumOut() {
	case 1:
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("second result of %s must be an error", t)
		}
	default:
		return nil, fmt.Errorf("%s must return a value, or a value and an error", t)
	}
	return &funcTransform{fn: v}, nil
}

func (f *funcTransform) Arity() int {
	if f.fn.Type().IsVariadic() {
		return -1
	}
	return f.fn.Type().NumIn()
}

func (f *funcTransform) Apply(args []any) (any, error) {
	t := f.fn.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)
		if pt == nil {
			return nil, fmt.Errorf("%s takes %d arguments, got %d", t, t.NumIn(), len(args))
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	out := f.fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	if i >= t.NumIn() {
		return nil
	}
	return t.In(i)
}

var stringType = reflect.TypeOf("")

func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == missing {
		switch {
		case t.Kind() == reflect.String:
			return reflect.ValueOf(empty).Convert(t), nil
		case t.Kind() == reflect.Interface && stringType.AssignableTo(t):
			v := reflect.New(t).Elem()
			v.Set(reflect.ValueOf(empty))
			return v, nil
		}
		return reflect.Zero(t), nil
	}
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String:
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, t)
	}
}

// Expr is a Transform written in the expr language. The arguments are bound
// to args, and the first one also to v.
//
//	args[0] + " " + args[1]
//	upper(trim(v))
type Expr struct {
	src  string
	prog *vm.Program
}

// NewExpr compiles an expression transform. A leading ExprPrefix is ignored.
func NewExpr(src string) (*Expr, error) {
	src = strings.TrimSpace(strings.TrimPrefix(src, ExprPrefix))
	prog, err := expr.Compile(src, expr.Env(exprEnv{}))
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", src, err)
	}
	return &Expr{src: src, prog: prog}, nil
}

func (e *Expr) String() string { return ExprPrefix + " " + e.src }

func (e *Expr) Arity() int { return -1 }

func (e *Expr) Apply(args []any) (any, error) {
	return expr.Run(e.prog, newExprEnv(args))
}

// exprEnv is the environment of expression transforms.
type exprEnv struct {
	Args []any `expr:"args"`
	V    any   `expr:"v"`
}

func newExprEnv(args []any) exprEnv {
	env := exprEnv{Args: args}
	if len(args) > 0 {
		env.V = args[0]
	}
	return env
}

// Awaitable is a value that is only known later. The context-aware map
// functions replace every Awaitable in their output with its result.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Later is an Awaitable backed by a function. It runs once per Await call.
type Later func(ctx context.Context) (any, error)

func (l Later) Await(ctx context.Context) (any, error) { return l(ctx) }

// isFunc reports whether a transform result is itself a function, which is
// never a valid field value.
func isFunc(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Awaitable); ok {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}
