package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// formField is either a text input or, when choices is set, a value picked
// by cycling with h/l.
type formField struct {
	label   string
	input   textinput.Model
	choices []string
	choice  int
}

func newField(label, placeholder string, limit int) formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.PlaceholderStyle = inputPlaceholderStyle
	ti.CharLimit = limit
	return formField{label: label, input: ti}
}

func passwordField(label string) formField {
	f := newField(label, "", 200)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(label string, choices []string) formField {
	return formField{label: label, choices: choices}
}

func (f formField) isChoice() bool { return len(f.choices) > 0 }

// form is a vertical list of fields with one focused at a time.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields ...formField) form {
	f := form{fields: fields}
	f.focusField(0)
	return f
}

func (f *form) focusField(i int) {
	if len(f.fields) == 0 {
		return
	}
	if f.focus < len(f.fields) && !f.fields[f.focus].isChoice() {
		f.fields[f.focus].input.Blur()
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	if !f.fields[f.focus].isChoice() {
		f.fields[f.focus].input.Focus()
	}
}

// value returns the trimmed text (or current choice) of field i.
func (f form) value(i int) string {
	fld := f.fields[i]
	if fld.isChoice() {
		return fld.choices[fld.choice]
	}
	return strings.TrimSpace(fld.input.Value())
}

// raw returns the untrimmed text of field i.
func (f form) raw(i int) string {
	return f.fields[i].input.Value()
}

func (f *form) setValue(i int, v string) {
	fld := &f.fields[i]
	if fld.isChoice() {
		for j, c := range fld.choices {
			if c == v {
				fld.choice = j
			}
		}
		return
	}
	fld.input.SetValue(v)
}

// onLast reports whether the focused field is the final one.
func (f form) onLast() bool {
	return f.focus == len(f.fields)-1
}

// next moves focus forward. It is what enter does on any field but the last.
func (f form) next() form {
	f.focusField(f.focus + 1)
	return f
}

// update moves focus on tab/shift+tab/up/down, cycles choice fields, and
// feeds everything else to the focused input.
func (f form) update(msg tea.KeyMsg) (form, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		f.focusField(f.focus + 1)
		return f, nil
	case "shift+tab", "up":
		f.focusField(f.focus - 1)
		return f, nil
	}

	fld := &f.fields[f.focus]
	if fld.isChoice() {
		n := len(fld.choices)
		switch msg.String() {
		case "l", "right", " ":
			fld.choice = (fld.choice + 1) % n
		case "h", "left":
			fld.choice = (fld.choice - 1 + n) % n
		}
		return f, nil
	}

	var cmd tea.Cmd
	fld.input, cmd = fld.input.Update(msg)
	return f, cmd
}

func (f form) view() string {
	var sb strings.Builder
	width := 0
	for _, fld := range f.fields {
		if len(fld.label) > width {
			width = len(fld.label)
		}
	}
	for i, fld := range f.fields {
		cursor := "  "
		label := metaStyle.Render(padRight(fld.label+":", width+1))
		if i == f.focus {
			cursor = accentStyle.Render(">") + " "
			label = inputPromptStyle.Render(padRight(fld.label+":", width+1))
		}
		var value string
		if fld.isChoice() {
			value = dimStyle.Render("< ") + selectedStyle.Render(fld.choices[fld.choice]) + dimStyle.Render(" >")
		} else {
			value = fld.input.View()
		}
		sb.WriteString("   " + cursor + label + " " + value + "\n")
	}
	return sb.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
