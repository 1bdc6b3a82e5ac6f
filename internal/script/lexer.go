package script

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind   tokenKind
	text   string
	number int64
}

var twoCharOps = map[string]bool{
	"==": true, "!=": true, ">=": true, "<=": true,
	"&&": true, "||": true, "+=": true, "-=": true,
}

var oneCharOps = map[byte]bool{
	'=': true, '>': true, '<': true, '!': true,
	'+': true, '-': true, '(': true, ')': true, ',': true,
}

func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1

		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			n, err := strconv.ParseInt(string(runes[i:j]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", string(runes[i:j]), err)
			}
			toks = append(toks, token{kind: tokNumber, number: n})
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j

		default:
			if i+1 < len(runes) && twoCharOps[string(runes[i:i+2])] {
				toks = append(toks, token{kind: tokOp, text: string(runes[i : i+2])})
				i += 2
				break
			}
			if r < 128 && oneCharOps[byte(r)] {
				toks = append(toks, token{kind: tokOp, text: string(r)})
				i++
				break
			}
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return toks, nil
}
