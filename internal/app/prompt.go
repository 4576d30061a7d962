package app

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Field is one question in a prompt sequence.
type Field struct {
	Label       string
	Placeholder string
	Secret      bool
}

// PromptSpec describes a sequence of questions a menu item asks before
// running its action. Submit receives the answers in field order.
type PromptSpec struct {
	Title  string
	Fields []Field
	Submit func(values []string) tea.Cmd
}

// activePrompt is a PromptSpec in flight, one text input at a time.
type activePrompt struct {
	spec   *PromptSpec
	inputs []textinput.Model
	idx    int
}

func newActivePrompt(spec *PromptSpec) *activePrompt {
	inputs := make([]textinput.Model, len(spec.Fields))
	for i, f := range spec.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 120
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
		}
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}
	return &activePrompt{spec: spec, inputs: inputs}
}

// advance moves focus to the next field and reports whether every field
// has been answered.
func (p *activePrompt) advance() bool {
	if p.idx >= len(p.inputs)-1 {
		return true
	}
	p.inputs[p.idx].Blur()
	p.idx++
	p.inputs[p.idx].Focus()
	return false
}

func (p *activePrompt) values() []string {
	vals := make([]string, len(p.inputs))
	for i := range p.inputs {
		vals[i] = p.inputs[i].Value()
	}
	return vals
}

func (p *activePrompt) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.inputs[p.idx], cmd = p.inputs[p.idx].Update(msg)
	return cmd
}
