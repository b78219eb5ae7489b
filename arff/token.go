package arff

import (
	"strings"

	"github.com/pkg/errors"
)

// splitRaw splits s on sep outside of quotes. Fields are trimmed but keep
// their quotes.
func splitRaw(s string, sep rune) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != 0:
			current.WriteRune(r)
			escaped = true
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			current.WriteRune(r)
			quote = r
		case r == sep:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated quote in %q", s)
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields, nil
}

// splitFields is splitRaw followed by unquote on every field.
func splitFields(s string, sep rune) ([]string, error) {
	raw, err := splitRaw(s, sep)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for i, f := range raw {
		if out[i], err = unquote(f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// unquote strips matching single or double quotes and resolves backslash
// escapes. Unquoted input is returned trimmed.
func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || (s[0] != '\'' && s[0] != '"') {
		return s, nil
	}
	q := s[0]
	if len(s) < 2 || s[len(s)-1] != q {
		return "", errors.Errorf("unterminated quote in %q", s)
	}
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	escaped := false
	for _, r := range body {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// readToken reads one leading token, quoted or delimited by whitespace, and
// returns it unquoted together with the trimmed remainder.
func readToken(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", nil
	}
	if s[0] != '\'' && s[0] != '"' {
		i := strings.IndexAny(s, " \t{")
		if i < 0 {
			return s, "", nil
		}
		return s[:i], strings.TrimSpace(s[i:]), nil
	}

	q := s[0]
	escaped := false
	for i := 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == q:
			tok, err := unquote(s[:i+1])
			return tok, strings.TrimSpace(s[i+1:]), err
		}
	}
	return "", "", errors.Errorf("unterminated quote in %q", s)
}
