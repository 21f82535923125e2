package resolve

import "unicode"

// lexState carries comment and string context from one line to the next.
type lexState struct {
	blockDepth int
	inString   bool
	inRaw      bool
	rawHashes  int
}

// scanLine calls visit for every delimiter rune of line that sits outside
// comments, string literals and char literals.
func scanLine(line string, state *lexState, visit func(rune)) {
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := runeAt(runes, i+1)

		switch {
		case state.blockDepth > 0:
			switch {
			case c == '*' && next == '/':
				state.blockDepth--
				i++
			case c == '/' && next == '*':
				state.blockDepth++
				i++
			}

		case state.inRaw:
			if c == '"' && hashesAt(runes, i+1) >= state.rawHashes {
				state.inRaw = false
				i += state.rawHashes
			}

		case state.inString:
			switch c {
			case '\\':
				i++
			case '"':
				state.inString = false
			}

		case c == '/' && next == '/':
			return

		case c == '/' && next == '*':
			state.blockDepth++
			i++

		case c == '"':
			state.inString = true

		case c == 'r' && rawStringPrefix(runes, i):
			hashes := hashesAt(runes, i+1)
			state.inRaw = true
			state.rawHashes = hashes
			i += hashes + 1

		case c == '\'':
			i = skipCharLiteral(runes, i)

		case c == '{' || c == '}' || c == '(' || c == ')' || c == '[' || c == ']' || c == ';':
			visit(c)
		}
	}
}

func runeAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

func hashesAt(runes []rune, i int) int {
	n := 0
	for runeAt(runes, i+n) == '#' {
		n++
	}
	return n
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// rawStringPrefix reports whether the `r` at i starts r"..", r#".."# or br"..".
func rawStringPrefix(runes []rune, i int) bool {
	prev := runeAt(runes, i-1)
	if isIdent(prev) && (prev != 'b' || isIdent(runeAt(runes, i-2))) {
		return false
	}
	return runeAt(runes, i+1+hashesAt(runes, i+1)) == '"'
}

// skipCharLiteral returns the index of the last rune of the char literal
// starting at i, or i itself when the quote opens a lifetime.
func skipCharLiteral(runes []rune, i int) int {
	if runeAt(runes, i+1) == '\\' {
		for j := i + 3; j < len(runes); j++ {
			if runes[j] == '\'' {
				return j
			}
		}
		return len(runes) - 1
	}
	if runeAt(runes, i+2) == '\'' {
		return i + 2
	}
	return i
}
