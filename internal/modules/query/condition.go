// Package query composes parameterised warehouse queries from typed
// conditions. Filter values are always carried as bound parameters; they never
// appear in the command text itself.
package query

import "strings"

// Condition is a boolean predicate fragment plus its bound parameters.
// The zero fragment ("") is the neutral predicate and is dropped on render.
type Condition interface {
	render() (string, []interface{})
}

type rawCond struct {
	fragment string
	params   []interface{}
}

type inSetCond struct {
	column string
	values []string
}

type andCond struct {
	conds []Condition
}

// Raw wraps an already-built predicate fragment with its bound parameters.
// The fragment must not contain user-controlled text.
func Raw(fragment string, params ...interface{}) Condition {
	return rawCond{fragment: fragment, params: params}
}

// InSet builds "column IN (?, ...)" over the given values. An empty value
// set renders to the neutral predicate, not to "IN ()".
func InSet(column string, values []string) Condition {
	return inSetCond{column: column, values: values}
}

// And conjoins conditions. Neutral members are skipped; an all-neutral
// conjunction is itself neutral.
func And(conds ...Condition) Condition {
	return andCond{conds: conds}
}

func (c rawCond) render() (string, []interface{}) {
	return c.fragment, c.params
}

func (c inSetCond) render() (string, []interface{}) {
	if len(c.values) == 0 {
		return "", nil
	}

	placeholders := strings.Repeat("?,", len(c.values))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(c.values))
	for i, v := range c.values {
		args[i] = v
	}

	return c.column + " IN (" + placeholders + ")", args
}

func (c andCond) render() (string, []interface{}) {
	var fragments []string
	var args []interface{}

	for _, cond := range c.conds {
		if cond == nil {
			continue
		}
		frag, params := cond.render()
		if frag == "" {
			continue
		}
		fragments = append(fragments, frag)
		args = append(args, params...)
	}

	switch len(fragments) {
	case 0:
		return "", nil
	case 1:
		return fragments[0], args
	default:
		return "(" + strings.Join(fragments, " AND ") + ")", args
	}
}

// Render turns a condition into SQL text and bound arguments.
// A neutral condition yields ("", nil).
func Render(c Condition) (string, []interface{}) {
	if c == nil {
		return "", nil
	}
	return c.render()
}

// Where renders a condition as a full WHERE clause (leading " WHERE ").
// A neutral condition yields the empty string: no WHERE clause at all.
func Where(c Condition) (string, []interface{}) {
	frag, args := Render(c)
	if frag == "" {
		return "", nil
	}
	return " WHERE " + frag, args
}
