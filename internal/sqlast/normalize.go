package sqlast

// Normalize returns expr with all negations pushed to the leaves:
//
//	NOT (a AND b)  =>  NOT a OR NOT b
//	NOT (a OR b)   =>  NOT a AND NOT b
//	NOT NOT a      =>  a
//	NOT TRUE       =>  FALSE
//
// After normalization no Not node has an AND or OR operand. Leaves are
// shared with expr; expr itself is not modified.
func Normalize(expr Expr) Expr {
	return normalize(expr, false)
}

func normalize(expr Expr, negated bool) Expr {
	switch e := expr.(type) {
	case *Binary:
		if e.Op.IsConnective() {
			op := e.Op
			if negated {
				op = dual(op)
			}
			return &Binary{
				Op:    op,
				Left:  normalize(e.Left, negated),
				Right: normalize(e.Right, negated),
			}
		}
	case *Not:
		return normalize(e.Expr, !negated)
	case *BoolLiteral:
		if negated {
			return &BoolLiteral{Value: !e.Value}
		}
		return e
	}

	if negated {
		return &Not{Expr: expr}
	}
	return expr
}

func dual(op BinaryOp) BinaryOp {
	if op == OpAnd {
		return OpOr
	}
	return OpAnd
}

// Copy returns a deep copy of expr.
func Copy(expr Expr) Expr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *Binary:
		return &Binary{Op: e.Op, Left: Copy(e.Left), Right: Copy(e.Right)}
	case *Column:
		c := *e
		return &c
	case *Func:
		return &Func{Name: e.Name, Args: copyAll(e.Args)}
	case *IsNull:
		return &IsNull{Expr: Copy(e.Expr)}
	case *Not:
		return &Not{Expr: Copy(e.Expr)}
	case *BoolLiteral:
		c := *e
		return &c
	case *Literal:
		c := *e
		return &c
	case *Parameter:
		c := *e
		return &c
	case *Case:
		whens := make([]When, len(e.Whens))
		for i, w := range e.Whens {
			whens[i] = When{Cond: Copy(w.Cond), Result: Copy(w.Result)}
		}
		return &Case{Whens: whens, Else: Copy(e.Else)}
	case *InSet:
		return &InSet{Expr: Copy(e.Expr), Values: Copy(e.Values)}
	case *SetLiteral:
		return &SetLiteral{Values: append([]any(nil), e.Values...)}
	case *SetParameter:
		c := *e
		return &c
	case *IsTrue:
		return &IsTrue{Expr: Copy(e.Expr)}
	default:
		panic("sqlast: Copy of unknown expression type")
	}
}

func copyAll(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	result := make([]Expr, len(exprs))
	for i, e := range exprs {
		result[i] = Copy(e)
	}
	return result
}
