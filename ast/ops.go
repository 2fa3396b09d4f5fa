package ast

import (
	"fmt"
	"strings"
)

// Op is a relational operator.
type Op int

const (
	EQ Op = iota
	NE
	GT
	GTE
	LT
	LTE
	BTW
	IN
	ISNULL
	NOTNULL
)

var opNames = [...]string{
	EQ:      "EQ",
	NE:      "NE",
	GT:      "GT",
	GTE:     "GTE",
	LT:      "LT",
	LTE:     "LTE",
	BTW:     "BETWEEN",
	IN:      "IN",
	ISNULL:  "IS_NULL",
	NOTNULL: "NOT_NULL",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp parses an operator name. Both the upper-case names ("GTE") and
// the symbolic forms ("=", "!=", ">", ">=", "<", "<=") are accepted.
func ParseOp(s string) (Op, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EQ", "=", "==":
		return EQ, nil
	case "NE", "!=", "<>":
		return NE, nil
	case "GT", ">":
		return GT, nil
	case "GTE", ">=":
		return GTE, nil
	case "LT", "<":
		return LT, nil
	case "LTE", "<=":
		return LTE, nil
	case "BETWEEN", "BTW":
		return BTW, nil
	case "IN":
		return IN, nil
	case "IS_NULL", "ISNULL":
		return ISNULL, nil
	case "NOT_NULL", "NOTNULL":
		return NOTNULL, nil
	}
	return 0, fmt.Errorf("ast: unknown operator %q", s)
}

// IsComparison reports whether the operator compares against a single value.
func (o Op) IsComparison() bool {
	return o >= EQ && o <= LTE
}
