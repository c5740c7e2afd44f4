package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Scope maps identifiers to values. Nested maps and slices are reachable with
// member and index syntax.
type Scope map[string]any

// Func is the preferred signature for callables placed in a Scope.
type Func func(args ...any) (any, error)

// Getter lets custom values expose members without reflection.
type Getter interface {
	Get(name string) (any, bool)
}

// ErrNotCallable is returned when a call targets a value that is not a function.
var ErrNotCallable = errors.New("expr: value is not callable")

// Program is a parsed expression that can be evaluated repeatedly.
type Program struct {
	source string
	root   node
}

// Source returns the expression text.
func (p *Program) Source() string {
	if p == nil {
		return ""
	}
	return p.source
}

var cache sync.Map

// Compile parses expression. Programs are cached by source text.
func Compile(expression string) (*Program, error) {
	if cached, ok := cache.Load(expression); ok {
		return cached.(*Program), nil
	}
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	program := &Program{source: expression, root: root}
	cache.Store(expression, program)
	return program, nil
}

// Eval parses and evaluates expression against scope. An empty expression
// evaluates to nil.
func Eval(expression string, scope Scope) (any, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	program, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return program.Eval(scope)
}

// Eval evaluates the program. Missing identifiers and members read as nil.
func (p *Program) Eval(scope Scope) (any, error) {
	if p == nil || p.root == nil {
		return nil, nil
	}
	return evaluate(p.root, scope)
}

func evaluate(n node, scope Scope) (any, error) {
	switch typed := n.(type) {
	case literalNode:
		return typed.value, nil
	case identNode:
		return scope[typed.name], nil
	case memberNode:
		target, err := evaluate(typed.target, scope)
		if err != nil {
			return nil, err
		}
		value, _ := member(target, typed.name)
		return value, nil
	case indexNode:
		target, err := evaluate(typed.target, scope)
		if err != nil {
			return nil, err
		}
		index, err := evaluate(typed.index, scope)
		if err != nil {
			return nil, err
		}
		return indexValue(target, index), nil
	case listNode:
		out := make([]any, 0, len(typed.items))
		for _, item := range typed.items {
			value, err := evaluate(item, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case callNode:
		return evalCall(typed, scope)
	case unaryNode:
		operand, err := evaluate(typed.operand, scope)
		if err != nil {
			return nil, err
		}
		switch typed.op {
		case "!":
			return !Truthy(operand), nil
		case "-":
			num, _ := coerceNumber(operand)
			return -num, nil
		default:
			num, _ := coerceNumber(operand)
			return num, nil
		}
	case binaryNode:
		return evalBinary(typed, scope)
	default:
		return nil, fmt.Errorf("expr: unsupported node %T", n)
	}
}

func evalBinary(n binaryNode, scope Scope) (any, error) {
	left, err := evaluate(n.left, scope)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return evaluate(n.right, scope)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return evaluate(n.right, scope)
	}

	right, err := evaluate(n.right, scope)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==", "===":
		return equal(left, right), nil
	case "!=", "!==":
		return !equal(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(n.op, left, right), nil
	case "+":
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return coerceString(left) + coerceString(right), nil
		}
		l, _ := coerceNumber(left)
		r, _ := coerceNumber(right)
		return l + r, nil
	case "-", "*", "/", "%":
		l, lok := coerceNumber(left)
		r, rok := coerceNumber(right)
		if !lok || !rok {
			return math.NaN(), nil
		}
		switch n.op {
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "/":
			return l / r, nil
		default:
			return math.Mod(l, r), nil
		}
	default:
		return nil, fmt.Errorf("expr: unsupported operator %q", n.op)
	}
}

func evalCall(n callNode, scope Scope) (any, error) {
	callee, err := evaluate(n.callee, scope)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(n.args))
	for _, arg := range n.args {
		value, err := evaluate(arg, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	return call(callee, args)
}

func call(callee any, args []any) (any, error) {
	switch fn := callee.(type) {
	case Func:
		return fn(args...)
	case func(args ...any) (any, error):
		return fn(args...)
	case func(args ...any) any:
		return fn(args...), nil
	case nil:
		return nil, ErrNotCallable
	}

	value := reflect.ValueOf(callee)
	if value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, callee)
	}
	fnType := value.Type()
	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		var param reflect.Type
		switch {
		case fnType.IsVariadic() && i >= fnType.NumIn()-1:
			param = fnType.In(fnType.NumIn() - 1).Elem()
		case i < fnType.NumIn():
			param = fnType.In(i)
		default:
			return nil, fmt.Errorf("expr: too many arguments for %s", fnType)
		}
		converted, err := convertArg(arg, param)
		if err != nil {
			return nil, err
		}
		in = append(in, converted)
	}
	for i := len(args); i < fnType.NumIn(); i++ {
		if fnType.IsVariadic() && i == fnType.NumIn()-1 {
			break
		}
		in = append(in, reflect.Zero(fnType.In(i)))
	}

	out := value.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := out[0].Interface().(error); ok && fnType.Out(0) == errorType {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func convertArg(arg any, param reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(param), nil
	}
	value := reflect.ValueOf(arg)
	if value.Type().AssignableTo(param) {
		return value, nil
	}
	if value.Type().ConvertibleTo(param) && (value.Kind() == reflect.String) == (param.Kind() == reflect.String) {
		return value.Convert(param), nil
	}
	return reflect.Value{}, fmt.Errorf("expr: cannot use %T as %s", arg, param)
}

func member(target any, name string) (any, bool) {
	switch typed := target.(type) {
	case nil:
		return nil, false
	case Scope:
		value, ok := typed[name]
		return value, ok
	case map[string]any:
		value, ok := typed[name]
		return value, ok
	case map[string]string:
		value, ok := typed[name]
		return value, ok
	case map[string]bool:
		value, ok := typed[name]
		return value, ok
	case Getter:
		return typed.Get(name)
	}
	if name == "length" {
		if n, ok := length(target); ok {
			return float64(n), true
		}
	}
	return reflectMember(target, name)
}

func reflectMember(target any, name string) (any, bool) {
	value := reflect.ValueOf(target)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Struct:
		field := value.FieldByNameFunc(func(candidate string) bool {
			return strings.EqualFold(candidate, name)
		})
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	default:
		return nil, false
	}
}

func indexValue(target, index any) any {
	if name, ok := index.(string); ok {
		value, _ := member(target, name)
		return value
	}
	pos, ok := coerceNumber(index)
	if !ok || pos != math.Trunc(pos) || pos < 0 {
		return nil
	}
	i := int(pos)
	switch typed := target.(type) {
	case []any:
		if i < len(typed) {
			return typed[i]
		}
		return nil
	case string:
		if i < len(typed) {
			return string(typed[i])
		}
		return nil
	}
	value := reflect.ValueOf(target)
	if value.Kind() == reflect.Slice || value.Kind() == reflect.Array {
		if i < value.Len() {
			return value.Index(i).Interface()
		}
	}
	return nil
}

func length(value any) (int, bool) {
	switch typed := value.(type) {
	case string:
		return len(typed), true
	case []any:
		return len(typed), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := numeric(left); ok {
		if r, ok := numeric(right); ok {
			return l == r
		}
	}
	lb, lok := left.(bool)
	rb, rok := right.(bool)
	if lok && rok {
		return lb == rb
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return ls == rs
	}
	return reflect.DeepEqual(left, right)
}

func compare(op string, left, right any) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		default:
			return ls >= rs
		}
	}
	l, lok := coerceNumber(left)
	r, rok := coerceNumber(right)
	if !lok || !rok {
		return false
	}
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default:
		return l >= r
	}
}

// Truthy applies the loose truthiness used by conditions: nil, false, zero,
// NaN, empty strings and empty collections are false.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := numeric(value); ok {
		return n != 0
	}
	if n, ok := length(value); ok {
		return n > 0
	}
	return true
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func coerceNumber(value any) (float64, bool) {
	if n, ok := numeric(value); ok {
		return n, true
	}
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
