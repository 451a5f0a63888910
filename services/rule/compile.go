package rule

import (
	"fmt"
	"strconv"
	"strings"

	"luckee-incentive/pkg/celengine"
	"luckee-incentive/pkg/domain"

	"github.com/shopspring/decimal"
)

// CompileConditions translates rule conditions into one CEL expression over the variables of
// celengine.RuleEnv. Conditions are joined with &&; no conditions compile to "true".
func CompileConditions(conds []Condition) (string, error) {
	if len(conds) == 0 {
		return "true", nil
	}

	terms := make([]string, 0, len(conds))
	for i, c := range conds {
		term, err := compileCondition(c)
		if err != nil {
			return "", fmt.Errorf("%w: condition %d: %v", domain.ErrInvalidConfiguration, i, err)
		}
		terms = append(terms, "("+term+")")
	}
	expr := strings.Join(terms, " && ")

	env, err := celengine.RuleEnv()
	if err != nil {
		return "", domain.SystemError(err)
	}
	if err := celengine.ValidateExpression(env, expr); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return expr, nil
}

func compileCondition(c Condition) (string, error) {
	switch c.ConditionType {
	case domain.ConditionActivityType:
		return stringTerm(celengine.VarActivityType, c.Operator, c.Value)
	case domain.ConditionUserLevel:
		return levelTerm(c.Operator, c.Value)
	case domain.ConditionTimeRange:
		return numericTerm(celengine.VarTimestamp, c.Operator, c.Value, intLiteral)
	case domain.ConditionAmount:
		return numericTerm(celengine.VarAmount, c.Operator, c.Value, doubleLiteral)
	case domain.ConditionCustom:
		return customTerm(c.Operator, c.Value)
	default:
		return "", fmt.Errorf("unknown condition type %q", c.ConditionType)
	}
}

func stringTerm(field string, op domain.ConditionOperator, value string) (string, error) {
	switch op {
	case domain.OperatorEquals:
		return fmt.Sprintf("%s == %s", field, strconv.Quote(value)), nil
	case domain.OperatorNotEquals:
		return fmt.Sprintf("%s != %s", field, strconv.Quote(value)), nil
	case domain.OperatorContains:
		return fmt.Sprintf("%s.contains(%s)", field, strconv.Quote(value)), nil
	case domain.OperatorIn:
		items, err := splitList(value)
		if err != nil {
			return "", err
		}
		quoted := make([]string, len(items))
		for i, it := range items {
			quoted[i] = strconv.Quote(it)
		}
		return fmt.Sprintf("%s in [%s]", field, strings.Join(quoted, ", ")), nil
	default:
		return "", fmt.Errorf("operator %q needs a numeric operand, %s is a string", op, field)
	}
}

func levelTerm(op domain.ConditionOperator, value string) (string, error) {
	rank := func(v string) (string, error) {
		r := domain.UserLevel(strings.TrimSpace(v)).Rank()
		if r < 0 {
			return "", fmt.Errorf("unknown level %q", v)
		}
		return strconv.Itoa(r), nil
	}

	if op == domain.OperatorIn {
		items, err := splitList(value)
		if err != nil {
			return "", err
		}
		ranks := make([]string, len(items))
		for i, it := range items {
			r, err := rank(it)
			if err != nil {
				return "", err
			}
			ranks[i] = r
		}
		return fmt.Sprintf("%s in [%s]", celengine.VarUserLevelRank, strings.Join(ranks, ", ")), nil
	}

	r, err := rank(value)
	if err != nil {
		return "", err
	}
	return comparison(celengine.VarUserLevelRank, op, r)
}

func numericTerm(field string, op domain.ConditionOperator, value string, literal func(string) (string, error)) (string, error) {
	if op == domain.OperatorIn {
		items, err := splitList(value)
		if err != nil {
			return "", err
		}
		lits := make([]string, len(items))
		for i, it := range items {
			l, err := literal(it)
			if err != nil {
				return "", err
			}
			lits[i] = l
		}
		return fmt.Sprintf("%s in [%s]", field, strings.Join(lits, ", ")), nil
	}

	l, err := literal(value)
	if err != nil {
		return "", err
	}
	return comparison(field, op, l)
}

// customTerm reads "key=value" and compares custom[key] as a string, or as a double for
// greater_than and less_than.
func customTerm(op domain.ConditionOperator, value string) (string, error) {
	key, operand, ok := strings.Cut(value, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", fmt.Errorf("custom condition %q must be key=value", value)
	}
	field := fmt.Sprintf("%s[%s]", celengine.VarCustom, strconv.Quote(key))

	switch op {
	case domain.OperatorGreaterThan, domain.OperatorLessThan:
		l, err := doubleLiteral(operand)
		if err != nil {
			return "", err
		}
		return comparison("double("+field+")", op, l)
	case domain.OperatorContains:
		return fmt.Sprintf("string(%s).contains(%s)", field, strconv.Quote(operand)), nil
	default:
		return stringTerm(field, op, operand)
	}
}

func comparison(field string, op domain.ConditionOperator, literal string) (string, error) {
	switch op {
	case domain.OperatorEquals:
		return fmt.Sprintf("%s == %s", field, literal), nil
	case domain.OperatorNotEquals:
		return fmt.Sprintf("%s != %s", field, literal), nil
	case domain.OperatorGreaterThan:
		return fmt.Sprintf("%s > %s", field, literal), nil
	case domain.OperatorLessThan:
		return fmt.Sprintf("%s < %s", field, literal), nil
	default:
		return "", fmt.Errorf("operator %q is not supported on %s", op, field)
	}
}

func intLiteral(v string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%q is not an integer", v)
	}
	return strconv.FormatInt(n, 10), nil
}

func doubleLiteral(v string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("%q is not a number", v)
	}
	f, _ := d.Float64()
	return strconv.FormatFloat(f, 'f', -1, 64) + dotZero(f), nil
}

// dotZero keeps whole numbers typed as double in CEL.
func dotZero(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsAny(s, ".eE") {
		return ""
	}
	return ".0"
}

func splitList(v string) ([]string, error) {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("operator in needs a comma separated list, got %q", v)
	}
	return out, nil
}
