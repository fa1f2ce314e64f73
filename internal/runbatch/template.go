// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a template placeholder has no matching context field.
	ErrMissingField = errors.New("template placeholder has no matching field")
	// ErrMalformedTemplate is returned when a template contains an unbalanced or unsupported placeholder.
	ErrMalformedTemplate = errors.New("malformed command template")
)

// Format substitutes every {name} placeholder in the template with the matching field.
// Doubled braces ({{ and }}) produce a literal brace.
func Format(template string, fields map[string]string) (string, error) {
	var sb strings.Builder

	sb.Grow(len(template))

	err := scan(template, func(literal string) {
		sb.WriteString(literal)
	}, func(name string) error {
		v, ok := fields[name]
		if !ok {
			return fmt.Errorf("%w: %q in %q", ErrMissingField, name, template)
		}

		sb.WriteString(v)

		return nil
	})
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Fields returns the distinct placeholder names of the template, in order of first appearance.
func Fields(template string) ([]string, error) {
	var names []string

	seen := make(map[string]struct{})

	err := scan(template, func(string) {}, func(name string) error {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// Escape doubles every brace in s so that it survives one Format pass unchanged.
func Escape(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

// scan walks the template calling literal for literal text and field for every placeholder.
func scan(template string, literal func(string), field func(string) error) error {
	for i := 0; i < len(template); {
		c := template[i]

		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			literal("{")
			i += 2
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			literal("}")
			i += 2
		case c == '}':
			return fmt.Errorf("%w: single '}' at offset %d in %q", ErrMalformedTemplate, i, template)
		case c == '{':
			end := strings.IndexAny(template[i+1:], "{}")
			if end < 0 || template[i+1+end] != '}' {
				return fmt.Errorf("%w: unclosed '{' at offset %d in %q", ErrMalformedTemplate, i, template)
			}

			name := template[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "!:[. ") {
				return fmt.Errorf("%w: unsupported placeholder %q in %q", ErrMalformedTemplate, name, template)
			}

			if err := field(name); err != nil {
				return err
			}

			i += end + 2
		default:
			next := strings.IndexAny(template[i:], "{}")
			if next < 0 {
				next = len(template) - i
			}

			literal(template[i : i+next])
			i += next
		}
	}

	return nil
}
