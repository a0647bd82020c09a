// SPDX-License-Identifier: MIT

// Package jsonscan pulls JSON object literals out of inline page scripts.
package jsonscan

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoAssignment means the marker occurs but never as `marker = {...}`.
var ErrNoAssignment = errors.New("jsonscan: no object assignment")

// Assignment finds `<marker> = {...}` (or window["marker"] = {...}) in text
// and decodes the object literal into v. found is false when the marker does
// not occur at all. Occurrences that are not assignments, or whose literal
// fails to decode, are skipped in favour of later ones.
func Assignment(text, marker string, v any) (found bool, err error) {
	err = ErrNoAssignment
	for rest := text; ; {
		idx := strings.Index(rest, marker)
		if idx < 0 {
			return found, err
		}
		found = true
		rest = rest[idx+len(marker):]

		lit, ok := objectLiteral(rest)
		if !ok {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(lit))
		dec.UseNumber()
		if derr := dec.Decode(v); derr != nil {
			err = derr
			continue
		}
		return true, nil
	}
}

// objectLiteral matches an optional closing `"]`, then `=`, then `{` at the
// start of s and returns s from the opening brace.
func objectLiteral(s string) (string, bool) {
	s = strings.TrimPrefix(s, `"]`)
	s = strings.TrimPrefix(s, `']`)
	s = strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(s, "=") {
		return "", false
	}
	s = strings.TrimLeft(s[1:], " \t\r\n")
	if !strings.HasPrefix(s, "{") {
		return "", false
	}
	return s, true
}

// Unescape reverses the JSON string escapes that hide URLs inside
// script-embedded JSON (`\/`, `\u0026`, `\u003d`, `\u0025`).
func Unescape(s string) string {
	return unescaper.Replace(s)
}

var unescaper = strings.NewReplacer(
	`\/`, `/`,
	`\u0026`, `&`,
	`\u003d`, `=`,
	`\u003D`, `=`,
	`\u0025`, `%`,
)
