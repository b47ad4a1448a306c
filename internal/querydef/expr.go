package querydef

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/histq/internal/sqlast"
)

var comparisonOps = map[string]sqlast.BinaryOp{
	"eq": sqlast.OpEq,
	"ne": sqlast.OpNe,
	"lt": sqlast.OpLt,
	"le": sqlast.OpLe,
	"gt": sqlast.OpGt,
	"ge": sqlast.OpGe,
}

func normalizeIdent(s string) string {
	return norm.NFC.String(s)
}

// singleKey returns the only key of an expression object.
func singleKey(raw any) (string, any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("expected an object, got %T", raw)
	}
	if len(obj) != 1 {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, fmt.Errorf("expected exactly one key, got %v", keys)
	}
	for k, v := range obj {
		return k, v, nil
	}
	panic("unreachable")
}

func parseExpr(raw any) (sqlast.Expr, error) {
	if b, ok := raw.(bool); ok {
		return &sqlast.BoolLiteral{Value: b}, nil
	}
	key, body, err := singleKey(raw)
	if err != nil {
		return nil, err
	}

	if op, ok := comparisonOps[key]; ok {
		operands, err := parseOperands(key, body)
		if err != nil {
			return nil, err
		}
		if len(operands) != 2 {
			return nil, fmt.Errorf("%s: expected 2 operands, got %d", key, len(operands))
		}
		return &sqlast.Binary{Op: op, Left: operands[0], Right: operands[1]}, nil
	}

	switch key {
	case "and", "or":
		operands, err := parseOperands(key, body)
		if err != nil {
			return nil, err
		}
		if len(operands) < 2 {
			return nil, fmt.Errorf("%s: expected at least 2 operands, got %d", key, len(operands))
		}
		op := sqlast.OpAnd
		if key == "or" {
			op = sqlast.OpOr
		}
		result := operands[0]
		for _, next := range operands[1:] {
			result = &sqlast.Binary{Op: op, Left: result, Right: next}
		}
		return result, nil

	case "not":
		inner, err := parseExpr(body)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return &sqlast.Not{Expr: inner}, nil

	case "is_null":
		inner, err := parseExpr(body)
		if err != nil {
			return nil, fmt.Errorf("is_null: %w", err)
		}
		return &sqlast.IsNull{Expr: inner}, nil

	case "col":
		return parseColumn(body)

	case "lit":
		v, err := normalizeValue(body)
		if err != nil {
			return nil, fmt.Errorf("lit: %w", err)
		}
		if _, isList := v.([]any); isList {
			return nil, fmt.Errorf("lit: lists are only allowed in in.values")
		}
		return &sqlast.Literal{Value: v}, nil

	case "param":
		name, ok := body.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("param: expected a name, got %v", body)
		}
		return &sqlast.Parameter{Name: normalizeIdent(name)}, nil

	case "bool":
		b, ok := body.(bool)
		if !ok {
			return nil, fmt.Errorf("bool: expected true or false, got %T", body)
		}
		return &sqlast.BoolLiteral{Value: b}, nil

	case "func":
		return parseFunc(body)

	case "in":
		return parseIn(body)

	case "case":
		return parseCase(body)

	default:
		return nil, fmt.Errorf("unknown expression %q", key)
	}
}

func parseOperands(key string, body any) ([]sqlast.Expr, error) {
	list, ok := body.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of operands, got %T", key, body)
	}
	operands := make([]sqlast.Expr, 0, len(list))
	for i, item := range list {
		e, err := parseExpr(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		operands = append(operands, e)
	}
	return operands, nil
}

func parseColumn(body any) (sqlast.Expr, error) {
	ref, ok := body.(string)
	if !ok || ref == "" {
		return nil, fmt.Errorf("col: expected \"alias.column\", got %v", body)
	}
	ref = normalizeIdent(ref)
	alias, name, found := strings.Cut(ref, ".")
	if !found {
		return &sqlast.Column{Name: ref}, nil
	}
	if alias == "" || name == "" || strings.Contains(name, ".") {
		return nil, fmt.Errorf("col: malformed column reference %q", ref)
	}
	return &sqlast.Column{Table: alias, Name: name}, nil
}

func parseFunc(body any) (sqlast.Expr, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("func: expected an object, got %T", body)
	}
	name, _ := obj["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("func: name required")
	}
	fn := &sqlast.Func{Name: name}
	if rawArgs, present := obj["args"]; present {
		args, err := parseOperands("func "+name, rawArgs)
		if err != nil {
			return nil, err
		}
		fn.Args = args
	}
	for k := range obj {
		if k != "name" && k != "args" {
			return nil, fmt.Errorf("func: unknown field %q", k)
		}
	}
	return fn, nil
}

func parseIn(body any) (sqlast.Expr, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("in: expected an object, got %T", body)
	}
	rawExpr, present := obj["expr"]
	if !present {
		return nil, fmt.Errorf("in: expr required")
	}
	e, err := parseExpr(rawExpr)
	if err != nil {
		return nil, fmt.Errorf("in.expr: %w", err)
	}

	rawValues, hasValues := obj["values"]
	rawParam, hasParam := obj["param"]
	switch {
	case hasValues && hasParam:
		return nil, fmt.Errorf("in: values and param are mutually exclusive")
	case hasValues:
		v, err := normalizeValue(rawValues)
		if err != nil {
			return nil, fmt.Errorf("in.values: %w", err)
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("in.values: expected a list, got %T", rawValues)
		}
		return &sqlast.InSet{Expr: e, Values: &sqlast.SetLiteral{Values: list}}, nil
	case hasParam:
		name, ok := rawParam.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("in.param: expected a name, got %v", rawParam)
		}
		return &sqlast.InSet{Expr: e, Values: &sqlast.SetParameter{Name: normalizeIdent(name)}}, nil
	default:
		return nil, fmt.Errorf("in: values or param required")
	}
}

func parseCase(body any) (sqlast.Expr, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("case: expected an object, got %T", body)
	}
	branches, ok := obj["when"].([]any)
	if !ok || len(branches) == 0 {
		return nil, fmt.Errorf("case: at least one when branch required")
	}

	c := &sqlast.Case{}
	for i, raw := range branches {
		branch, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("case.when[%d]: expected an object, got %T", i, raw)
		}
		cond, err := parseExpr(branch["if"])
		if err != nil {
			return nil, fmt.Errorf("case.when[%d].if: %w", i, err)
		}
		result, err := parseExpr(branch["then"])
		if err != nil {
			return nil, fmt.Errorf("case.when[%d].then: %w", i, err)
		}
		c.Whens = append(c.Whens, sqlast.When{Cond: cond, Result: result})
	}
	if rawElse, present := obj["else"]; present {
		e, err := parseExpr(rawElse)
		if err != nil {
			return nil, fmt.Errorf("case.else: %w", err)
		}
		c.Else = e
	}
	return c, nil
}

// parseTable converts {table, as} and {join, left, right, on} objects.
func parseTable(raw any) (sqlast.TableRef, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a table object, got %T", raw)
	}

	if name, isTable := obj["table"]; isTable {
		tableName, ok := name.(string)
		if !ok || tableName == "" {
			return nil, fmt.Errorf("table: expected a name, got %v", name)
		}
		t := &sqlast.Table{Name: normalizeIdent(tableName), Alias: normalizeIdent(tableName)}
		if rawAlias, present := obj["as"]; present {
			alias, ok := rawAlias.(string)
			if !ok || alias == "" {
				return nil, fmt.Errorf("table %s: expected an alias, got %v", tableName, rawAlias)
			}
			t.Alias = normalizeIdent(alias)
		}
		return t, nil
	}

	rawKind, isJoin := obj["join"]
	if !isJoin {
		return nil, fmt.Errorf("expected a table or join object")
	}
	var kind sqlast.JoinKind
	switch rawKind {
	case "inner":
		kind = sqlast.JoinInner
	case "left":
		kind = sqlast.JoinLeftOuter
	default:
		return nil, fmt.Errorf("join: unknown kind %v (want inner or left)", rawKind)
	}

	left, err := parseTable(obj["left"])
	if err != nil {
		return nil, fmt.Errorf("join.left: %w", err)
	}
	right, err := parseTable(obj["right"])
	if err != nil {
		return nil, fmt.Errorf("join.right: %w", err)
	}
	rawOn, present := obj["on"]
	if !present {
		return nil, fmt.Errorf("join: on required")
	}
	on, err := parseExpr(rawOn)
	if err != nil {
		return nil, fmt.Errorf("join.on: %w", err)
	}
	return &sqlast.Join{Kind: kind, Left: left, Right: right, On: on}, nil
}

// normalizeValue converts decoded scalars to the value types accepted by
// the SQL printer. Lists are converted element-wise.
func normalizeValue(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return norm.NFC.String(v), nil
	case nil, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", v)
		}
		return int64(v), nil
	case *big.Int:
		if !v.IsInt64() {
			return nil, fmt.Errorf("integer %s out of range", v)
		}
		return v.Int64(), nil
	case []any:
		list := make([]any, len(v))
		for i, item := range v {
			n, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if _, nested := n.([]any); nested {
				return nil, fmt.Errorf("[%d]: nested lists are not supported", i)
			}
			list[i] = n
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}
