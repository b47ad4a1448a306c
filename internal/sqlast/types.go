package sqlast

// Expr is a SQL scalar or boolean expression.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// TableRef is an entry of a FROM clause: a table or a join of two TableRefs.
type TableRef interface {
	tableNode() // Marker method - seals interface to this package
}

// BinaryOp is the operator of a Binary expression.
type BinaryOp string

const (
	OpAnd BinaryOp = "AND"
	OpOr  BinaryOp = "OR"
	OpEq  BinaryOp = "="
	OpNe  BinaryOp = "<>"
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
)

// IsConnective reports whether op combines boolean operands (AND, OR).
func (op BinaryOp) IsConnective() bool {
	return op == OpAnd || op == OpOr
}

// Valid reports whether op is one of the known operators.
func (op BinaryOp) Valid() bool {
	switch op {
	case OpAnd, OpOr, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// Binary is a binary operation: a boolean connective or a comparison.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Column references a column of the table bound to Table (an alias).
type Column struct {
	Table string
	Name  string
}

func (*Column) exprNode() {}

// Func is a call of a SQL function, e.g. LOWER(x) or COALESCE(a, b).
type Func struct {
	Name string
	Args []Expr
}

func (*Func) exprNode() {}

// IsNull tests Expr for SQL NULL.
type IsNull struct {
	Expr Expr
}

func (*IsNull) exprNode() {}

// Not negates Expr.
type Not struct {
	Expr Expr
}

func (*Not) exprNode() {}

// BoolLiteral is the constant TRUE or FALSE.
type BoolLiteral struct {
	Value bool
}

func (*BoolLiteral) exprNode() {}

// Literal is a constant value: string, int64, bool or nil.
type Literal struct {
	Value any
}

func (*Literal) exprNode() {}

// Parameter is a named scalar argument supplied at execution time.
type Parameter struct {
	Name string
}

func (*Parameter) exprNode() {}

// When is one branch of a Case expression.
type When struct {
	Cond   Expr
	Result Expr
}

// Case is a searched CASE expression. Else may be nil.
type Case struct {
	Whens []When
	Else  Expr
}

func (*Case) exprNode() {}

// InSet tests whether Expr is a member of Values. Values is a SetLiteral
// or a SetParameter.
type InSet struct {
	Expr   Expr
	Values Expr
}

func (*InSet) exprNode() {}

// SetLiteral is a constant list of values.
type SetLiteral struct {
	Values []any
}

func (*SetLiteral) exprNode() {}

// SetParameter is a named list argument supplied at execution time.
type SetParameter struct {
	Name string
}

func (*SetParameter) exprNode() {}

// IsTrue evaluates to 1 when Expr holds and 0 otherwise (including NULL).
type IsTrue struct {
	Expr Expr
}

func (*IsTrue) exprNode() {}

// Table is a table occurrence in a FROM clause.
type Table struct {
	Name  string // physical table name
	Alias string
}

func (*Table) tableNode() {}

// JoinKind selects inner or left outer join semantics.
type JoinKind string

const (
	JoinInner     JoinKind = "INNER"
	JoinLeftOuter JoinKind = "LEFT OUTER"
)

// Join combines two table references. On is required.
type Join struct {
	Kind  JoinKind
	Left  TableRef
	Right TableRef
	On    Expr
}

func (*Join) tableNode() {}

// ColumnDef is an entry of a SELECT list.
type ColumnDef struct {
	Expr  Expr
	Alias string // optional
}

// Order is an ORDER BY entry.
type Order struct {
	Expr       Expr
	Descending bool
}

// Select is a complete query.
type Select struct {
	Distinct bool
	Columns  []ColumnDef
	From     TableRef
	Where    Expr // nil = no filter
	OrderBy  []Order
}

// Convenience constructors used by query builders and tests.

// And builds left AND right.
func And(left, right Expr) *Binary { return &Binary{Op: OpAnd, Left: left, Right: right} }

// Or builds left OR right.
func Or(left, right Expr) *Binary { return &Binary{Op: OpOr, Left: left, Right: right} }

// Eq builds left = right.
func Eq(left, right Expr) *Binary { return &Binary{Op: OpEq, Left: left, Right: right} }

// Col builds a column reference alias.name.
func Col(alias, name string) *Column { return &Column{Table: alias, Name: name} }

// Lit builds a literal.
func Lit(v any) *Literal { return &Literal{Value: v} }
