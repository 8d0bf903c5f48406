/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"encoding/xml"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"
)

// template is a prompt with {{name}} placeholders. Values are bound either as
// trusted literals or as XML-escaped data, and every placeholder must be bound
// before build succeeds.
type template struct {
	text   string
	values map[string]*string
}

func mustTemplate(text string) *template {
	t, err := newTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

func newTemplate(text string) (*template, error) {
	values := make(map[string]*string)
	if _, err := walk(text, func(name string) (string, error) {
		values[name] = nil
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &template{text: text, values: values}, nil
}

// bindLiteral returns a copy of t with name bound to s verbatim.
func (t *template) bindLiteral(name, s string) (*template, error) {
	b, ok := t.values[name]
	switch {
	case !ok:
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	case b != nil:
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	out := &template{text: t.text, values: maps.Clone(t.values)}
	out.values[name] = &s
	return out, nil
}

// bindXML returns a copy of t with name bound to the XML encoding of v.
func (t *template) bindXML(name string, v any) (*template, error) {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	return t.bindLiteral(name, string(b))
}

func (t *template) build() (string, error) {
	return walk(t.text, func(name string) (string, error) {
		v := t.values[name]
		if v == nil {
			return "", fmt.Errorf("unbound placeholder: %s", name)
		}
		return *v, nil
	})
}

// walk copies text, replacing each {{name}} with the result of resolve.
func walk(text string, resolve func(name string) (string, error)) (string, error) {
	var sb strings.Builder
	for {
		start := strings.Index(text, "{{")
		if start < 0 {
			sb.WriteString(text)
			return sb.String(), nil
		}
		sb.WriteString(text[:start])
		end := strings.Index(text[start:], "}}")
		if end < 0 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		name := strings.TrimSpace(text[start+2 : start+end])
		if !isIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder %q", name)
		}
		v, err := resolve(name)
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
		text = text[start+end+2:]
	}
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}
