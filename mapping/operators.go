package mapping

// Condition operators as they appear in the logical AST.
const (
	OpEquals    = "="
	OpNotEquals = "!="
	OpGT        = ">"
	OpLT        = "<"
	OpGTE       = ">="
	OpLTE       = "<="
	OpIn        = "IN"
	OpNotIn     = "NOT IN"
	OpLike      = "LIKE"
	OpNotLike   = "NOT LIKE"
	OpIsNull    = "IS NULL"
	OpIsNotNull = "IS NOT NULL"
)

// Boolean combinators in function-call form.
const (
	BoolAnd = "and"
	BoolOr  = "or"
	BoolNot = "not"
)

// OperatorToFunction maps a condition operator to the ClickHouse function
// that implements it when conditions are rendered in function-call form.
var OperatorToFunction = map[string]string{
	OpEquals:    "equals",
	OpNotEquals: "notEquals",
	OpGT:        "greater",
	OpLT:        "less",
	OpGTE:       "greaterOrEquals",
	OpLTE:       "lessOrEquals",
	OpIn:        "in",
	OpNotIn:     "notIn",
	OpLike:      "like",
	OpNotLike:   "notLike",
	OpIsNull:    "isNull",
	OpIsNotNull: "isNotNull",
}

// FunctionToOperator is the inverse of OperatorToFunction.
var FunctionToOperator = invert(OperatorToFunction)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// IsSupportedOperator checks whether op is a known condition operator.
func IsSupportedOperator(op string) bool {
	_, ok := OperatorToFunction[op]
	return ok
}
