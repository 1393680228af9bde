package mailer

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"github.com/daviddao/sheetmail/internal/types"
)

// Templates renders follow-up emails. {name} and {show} come from the
// contact; every other {key} comes from the vars given to NewTemplates.
// Values are HTML-escaped in bodies and inserted verbatim in the subject.
type Templates struct {
	subject   string
	bodies    []string
	signature string
	vars      map[string]string
}

// NewTemplates builds a renderer. bodies[i] is follow-up i. vars maps
// placeholder names without braces, e.g. "sender", to their values.
func NewTemplates(subject string, bodies []string, signature string, vars map[string]string) *Templates {
	return &Templates{
		subject:   subject,
		bodies:    append([]string(nil), bodies...),
		signature: signature,
		vars:      maps.Clone(vars),
	}
}

// Count is the number of follow-ups in the sequence.
func (t *Templates) Count() int {
	return len(t.bodies)
}

// Render produces the subject and HTML body of follow-up index for c.
func (t *Templates) Render(index int, c types.Contact) (subject, body string, err error) {
	if index < 0 || index >= len(t.bodies) {
		return "", "", fmt.Errorf("follow-up template %d out of range (have %d)", index, len(t.bodies))
	}

	plain := []string{"{name}", c.Name, "{show}", c.Show}
	escaped := []string{"{name}", html.EscapeString(c.Name), "{show}", html.EscapeString(c.Show)}
	for _, k := range slices.Sorted(maps.Keys(t.vars)) {
		if k == "name" || k == "show" {
			continue
		}
		plain = append(plain, "{"+k+"}", t.vars[k])
		escaped = append(escaped, "{"+k+"}", html.EscapeString(t.vars[k]))
	}
	subject = strings.NewReplacer(plain...).Replace(t.subject)
	body = strings.NewReplacer(escaped...).Replace(t.bodies[index] + t.signature)
	return subject, body, nil
}
