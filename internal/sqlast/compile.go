package sqlast

import (
	"fmt"
	"reflect"
	"strings"
)

// Compiler renders Select statements to parameterized SQLite text.
//
// CRITICAL: literal and parameter values are NEVER interpolated; each one
// becomes a ? placeholder and is returned in the params slice.
type Compiler struct {
	// Args holds the values of Parameter and SetParameter nodes by name.
	Args map[string]any
}

// NewCompiler creates a Compiler binding the given named arguments.
func NewCompiler(args map[string]any) *Compiler {
	if args == nil {
		args = make(map[string]any)
	}
	return &Compiler{Args: args}
}

// Compile converts sel to SQL. Returns (sql, params, error).
func (c *Compiler) Compile(sel *Select) (string, []any, error) {
	if sel == nil {
		return "", nil, fmt.Errorf("cannot compile nil select")
	}
	if len(sel.Columns) == 0 {
		return "", nil, fmt.Errorf("select without columns")
	}
	if sel.From == nil {
		return "", nil, fmt.Errorf("select without FROM clause")
	}

	p := &printer{args: c.Args}
	p.write("SELECT ")
	if sel.Distinct {
		p.write("DISTINCT ")
	}
	for i, col := range sel.Columns {
		if i > 0 {
			p.write(", ")
		}
		if err := p.expr(col.Expr); err != nil {
			return "", nil, fmt.Errorf("column %d: %w", i, err)
		}
		if col.Alias != "" {
			p.write(" AS ")
			p.write(col.Alias)
		}
	}

	p.write(" FROM ")
	if err := p.table(sel.From, false); err != nil {
		return "", nil, fmt.Errorf("compile FROM: %w", err)
	}

	if sel.Where != nil {
		p.write(" WHERE ")
		if err := p.expr(sel.Where); err != nil {
			return "", nil, fmt.Errorf("compile WHERE: %w", err)
		}
	}

	if len(sel.OrderBy) > 0 {
		p.write(" ORDER BY ")
		for i, o := range sel.OrderBy {
			if i > 0 {
				p.write(", ")
			}
			if err := p.expr(o.Expr); err != nil {
				return "", nil, fmt.Errorf("compile ORDER BY: %w", err)
			}
			if o.Descending {
				p.write(" DESC")
			} else {
				p.write(" ASC")
			}
		}
	}

	return p.sb.String(), p.params, nil
}

// Format renders expr with literal values inline. The result is meant for
// logs and diagnostics, not for execution. A node that cannot be printed
// renders as the error text in angle brackets.
func Format(expr Expr) string {
	p := &printer{inline: true}
	if err := p.expr(expr); err != nil {
		return "<" + err.Error() + ">"
	}
	return p.sb.String()
}

// FormatTable renders a FROM clause for diagnostics.
func FormatTable(ref TableRef) string {
	p := &printer{inline: true}
	if err := p.table(ref, false); err != nil {
		return "<" + err.Error() + ">"
	}
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	params []any
	args   map[string]any
	inline bool
}

func (p *printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *printer) table(ref TableRef, nested bool) error {
	switch t := ref.(type) {
	case *Table:
		p.write(t.Name)
		if t.Alias != "" && t.Alias != t.Name {
			p.write(" AS ")
			p.write(t.Alias)
		}
		return nil
	case *Join:
		if t.On == nil {
			return fmt.Errorf("join without ON condition")
		}
		if nested {
			p.write("(")
		}
		if err := p.table(t.Left, false); err != nil {
			return err
		}
		kind := t.Kind
		if kind == "" {
			kind = JoinInner
		}
		p.write(" " + string(kind) + " JOIN ")
		if err := p.table(t.Right, true); err != nil {
			return err
		}
		p.write(" ON ")
		if err := p.expr(t.On); err != nil {
			return err
		}
		if nested {
			p.write(")")
		}
		return nil
	default:
		return fmt.Errorf("unsupported table reference: %T", ref)
	}
}

func (p *printer) expr(e Expr) error {
	switch x := e.(type) {
	case *Binary:
		if !x.Op.Valid() {
			return fmt.Errorf("unknown operator %q", x.Op)
		}
		p.write("(")
		if err := p.expr(x.Left); err != nil {
			return err
		}
		p.write(" " + string(x.Op) + " ")
		if err := p.expr(x.Right); err != nil {
			return err
		}
		p.write(")")
	case *Column:
		if x.Table != "" {
			p.write(x.Table + ".")
		}
		p.write(x.Name)
	case *Func:
		p.write(x.Name + "(")
		for i, arg := range x.Args {
			if i > 0 {
				p.write(", ")
			}
			if err := p.expr(arg); err != nil {
				return err
			}
		}
		p.write(")")
	case *IsNull:
		p.write("(")
		if err := p.expr(x.Expr); err != nil {
			return err
		}
		p.write(" IS NULL)")
	case *Not:
		p.write("NOT ")
		if err := p.expr(x.Expr); err != nil {
			return err
		}
	case *BoolLiteral:
		p.boolean(x.Value)
	case *Literal:
		return p.value(x.Value)
	case *Parameter:
		if p.inline {
			p.write(":" + x.Name)
			return nil
		}
		v, ok := p.args[x.Name]
		if !ok {
			return fmt.Errorf("missing argument %q", x.Name)
		}
		return p.value(v)
	case *Case:
		if len(x.Whens) == 0 {
			return fmt.Errorf("CASE without WHEN branch")
		}
		p.write("CASE")
		for _, w := range x.Whens {
			p.write(" WHEN ")
			if err := p.expr(w.Cond); err != nil {
				return err
			}
			p.write(" THEN ")
			if err := p.expr(w.Result); err != nil {
				return err
			}
		}
		if x.Else != nil {
			p.write(" ELSE ")
			if err := p.expr(x.Else); err != nil {
				return err
			}
		}
		p.write(" END")
	case *InSet:
		p.write("(")
		if err := p.expr(x.Expr); err != nil {
			return err
		}
		p.write(" IN ")
		if err := p.expr(x.Values); err != nil {
			return err
		}
		p.write(")")
	case *SetLiteral:
		return p.list(x.Values)
	case *SetParameter:
		if p.inline {
			p.write("(:" + x.Name + ")")
			return nil
		}
		v, ok := p.args[x.Name]
		if !ok {
			return fmt.Errorf("missing argument %q", x.Name)
		}
		values, err := toList(v)
		if err != nil {
			return fmt.Errorf("argument %q: %w", x.Name, err)
		}
		return p.list(values)
	case *IsTrue:
		p.write("CASE WHEN ")
		if err := p.expr(x.Expr); err != nil {
			return err
		}
		p.write(" THEN 1 ELSE 0 END")
	case nil:
		return fmt.Errorf("nil expression")
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func (p *printer) boolean(v bool) {
	switch {
	case p.inline && v:
		p.write("TRUE")
	case p.inline:
		p.write("FALSE")
	case v:
		p.write("1")
	default:
		p.write("0")
	}
}

// value emits a placeholder for v, or its inline rendering.
func (p *printer) value(v any) error {
	switch val := v.(type) {
	case nil:
		p.write("NULL")
		return nil
	case string, int64, int, float64, bool:
		if p.inline {
			p.write(inlineValue(val))
			return nil
		}
		p.write("?")
		p.params = append(p.params, val)
		return nil
	default:
		return fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

func (p *printer) list(values []any) error {
	p.write("(")
	for i, v := range values {
		if i > 0 {
			p.write(", ")
		}
		if err := p.value(v); err != nil {
			return err
		}
	}
	p.write(")")
	return nil
}

func inlineValue(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toList expands a slice argument into its elements.
func toList(v any) ([]any, error) {
	if list, ok := v.([]any); ok {
		return list, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, nil
}
