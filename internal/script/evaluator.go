// Package script provides the built-in ScriptEvaluator: a small expression
// language covering comparisons, boolean combinators and assignments over
// namespaced variables. Hosts with a richer script language plug their own
// evaluator in through the port instead.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/studiobgc/dialogue-editor/pkg/ports"
)

// Evaluator implements ports.ScriptEvaluator.
//
// Conditions:  Score.Points >= 10 && !Flags.MetGuard || Player.Name == 'Rook'
// Instructions: Score.Points += 5; Flags.MetGuard = true; AddItem('rope')
//
// Function calls are dispatched to the method provider when it implements
// Caller. Hosts with a richer script language plug in their own evaluator
// through the port instead.
type Evaluator struct{}

// Caller dispatches a named function invoked from a script expression.
// The pkg/registry package provides the standard implementation.
type Caller interface {
	Call(ctx context.Context, name string, args []any) (any, error)
}

// New returns the built-in evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs a condition expression to a boolean.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, vars ports.VariableAccessor, methodProvider any) (bool, error) {
	toks, err := tokenize(expression)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", expression, err)
	}
	p := &parser{toks: toks, vars: vars, ctx: ctx, method: methodProvider}
	val, err := p.parseOr()
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", expression, err)
	}
	if !p.done() {
		return false, fmt.Errorf("condition %q: unexpected %q", expression, p.peek().text)
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q: result is %T, not bool", expression, val)
	}
	return b, nil
}

// Execute runs semicolon-separated statements for effect: assignments and
// bare function calls.
func (e *Evaluator) Execute(ctx context.Context, expression string, vars ports.VariableAccessor, methodProvider any) error {
	for _, stmt := range splitStatements(expression) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := executeStatement(ctx, stmt, vars, methodProvider); err != nil {
			return fmt.Errorf("instruction %q: %w", strings.TrimSpace(stmt), err)
		}
	}
	return nil
}

func executeStatement(ctx context.Context, stmt string, vars ports.VariableAccessor, methodProvider any) error {
	toks, err := tokenize(stmt)
	if err != nil {
		return err
	}

	// A bare call, e.g. AddItem('rope'), runs for effect only.
	if len(toks) >= 2 && toks[0].kind == tokIdent && toks[1].kind == tokOp && toks[1].text == "(" {
		p := &parser{toks: toks, vars: vars, ctx: ctx, method: methodProvider}
		if _, err := p.parsePrimary(); err != nil {
			return err
		}
		if !p.done() {
			return fmt.Errorf("unexpected %q", p.peek().text)
		}
		return nil
	}

	if len(toks) < 3 || toks[0].kind != tokIdent {
		return fmt.Errorf("expected 'Namespace.Variable <op> <value>'")
	}
	name := toks[0].text
	op := toks[1]
	if op.kind != tokOp || (op.text != "=" && op.text != "+=" && op.text != "-=") {
		return fmt.Errorf("unsupported assignment operator %q", op.text)
	}

	p := &parser{toks: toks[2:], vars: vars, ctx: ctx, method: methodProvider}
	rhs, err := p.parseAdditive()
	if err != nil {
		return err
	}
	if !p.done() {
		return fmt.Errorf("unexpected %q", p.peek().text)
	}

	switch op.text {
	case "=":
		return vars.Set(name, rhs)
	case "+=", "-=":
		current, err := vars.GetInt(name)
		if err != nil {
			return err
		}
		delta, ok := rhs.(int64)
		if !ok {
			return fmt.Errorf("%s needs an integer operand, got %T", op.text, rhs)
		}
		if op.text == "-=" {
			delta = -delta
		}
		return vars.SetInt(name, current+delta)
	}
	return nil
}

// splitStatements splits on semicolons outside string literals.
func splitStatements(expression string) []string {
	var out []string
	var quote rune
	start := 0
	for i, r := range expression {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			out = append(out, expression[start:i])
			start = i + 1
		}
	}
	out = append(out, expression[start:])
	return out
}

type parser struct {
	toks   []token
	pos    int
	vars   ports.VariableAccessor
	ctx    context.Context
	method any
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) acceptOp(texts ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, want := range texts {
		if t.text == want {
			p.pos++
			return want, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (any, error) {
	left, err := p.parseAnd()
	for err == nil {
		if _, ok := p.acceptOp("||"); !ok {
			break
		}
		lb, lok := left.(bool)
		var right any
		right, err = p.parseAnd()
		if err != nil {
			break
		}
		rb, rok := right.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("|| needs boolean operands")
		}
		left = lb || rb
	}
	return left, err
}

func (p *parser) parseAnd() (any, error) {
	left, err := p.parseUnary()
	for err == nil {
		if _, ok := p.acceptOp("&&"); !ok {
			break
		}
		lb, lok := left.(bool)
		var right any
		right, err = p.parseUnary()
		if err != nil {
			break
		}
		rb, rok := right.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("&& needs boolean operands")
		}
		left = lb && rb
	}
	return left, err
}

func (p *parser) parseUnary() (any, error) {
	if _, ok := p.acceptOp("!"); ok {
		val, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		b, isBool := val.(bool)
		if !isBool {
			return nil, fmt.Errorf("! needs a boolean operand, got %T", val)
		}
		return !b, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (any, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("==", "!=", ">=", "<=", ">", "<")
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return compare(op, left, right)
}

func (p *parser) parseAdditive() (any, error) {
	left, err := p.parsePrimary()
	for err == nil {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			break
		}
		var right any
		right, err = p.parsePrimary()
		if err != nil {
			break
		}
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if !lok || !rok {
			return nil, fmt.Errorf("%s needs integer operands", op)
		}
		if op == "+" {
			left = li + ri
		} else {
			left = li - ri
		}
	}
	return left, err
}

func (p *parser) parsePrimary() (any, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.number, nil
	case tokString:
		return t.text, nil
	case tokIdent:
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		if _, ok := p.acceptOp("("); ok {
			return p.parseCall(t.text)
		}
		if !strings.Contains(t.text, ".") {
			return nil, fmt.Errorf("unknown identifier %q", t.text)
		}
		return p.vars.Get(t.text)
	case tokOp:
		if t.text == "(" {
			val, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("missing closing parenthesis")
			}
			return val, nil
		}
		return nil, fmt.Errorf("unexpected operator %q", t.text)
	default:
		return nil, fmt.Errorf("unexpected end of expression")
	}
}

// parseCall finishes a function invocation after "name(" has been consumed
// and dispatches it to the method provider.
func (p *parser) parseCall(name string) (any, error) {
	var args []any
	if _, ok := p.acceptOp(")"); !ok {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if _, ok := p.acceptOp(","); ok {
				continue
			}
			if _, ok := p.acceptOp(")"); ok {
				break
			}
			return nil, fmt.Errorf("missing closing parenthesis in call to %q", name)
		}
	}

	caller, ok := p.method.(Caller)
	if !ok {
		return nil, fmt.Errorf("no method provider for function %q", name)
	}
	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return caller.Call(ctx, name, args)
}

func compare(op string, left, right any) (any, error) {
	switch l := left.(type) {
	case bool:
		r, ok := right.(bool)
		if !ok {
			return nil, typeErr(op, left, right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		}
		return nil, typeErr(op, left, right)
	case int64:
		r, ok := right.(int64)
		if !ok {
			return nil, typeErr(op, left, right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		case ">=":
			return l >= r, nil
		case "<=":
			return l <= r, nil
		case ">":
			return l > r, nil
		case "<":
			return l < r, nil
		}
	case string:
		r, ok := right.(string)
		if !ok {
			return nil, typeErr(op, left, right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		}
		return nil, typeErr(op, left, right)
	}
	return nil, typeErr(op, left, right)
}

func typeErr(op string, left, right any) error {
	return fmt.Errorf("cannot apply %s to %T and %T", op, left, right)
}
