package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/pipeline"
)

// Theme holds the color scheme for the chat display.
type Theme struct {
	Question lipgloss.Color
	Answer   lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Question: lipgloss.Color("#5FAFD7"), // light blue
	Answer:   lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) questionStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Question).Bold(true)
}

func (t Theme) answerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Answer)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tokenMsg carries one streamed answer chunk.
type tokenMsg string

// answerDoneMsg signals the end of a streamed answer.
type answerDoneMsg struct{ err error }

// chatTUI is the bubbletea model for the interactive chat.
type chatTUI struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	session  string
	model    string
	theme    Theme

	input      textinput.Model
	transcript string
	streaming  bool
	tokens     chan tokenMsg
	done       chan answerDoneMsg
	err        error
	width      int
}

// newChatTUI creates the chat model.
func newChatTUI(ctx context.Context, p *pipeline.Pipeline, session, model string) chatTUI {
	ti := textinput.New()
	ti.Placeholder = "Ask about the archive (Enter to send, Ctrl+C to quit)"
	ti.CharLimit = 2048
	ti.Focus()

	return chatTUI{
		ctx:      ctx,
		pipeline: p,
		session:  session,
		model:    model,
		theme:    defaultTheme,
		input:    ti,
	}
}

// Init returns the initial command.
func (m chatTUI) Init() tea.Cmd {
	return textinput.Blink
}

// ask starts answering the question in the background and returns the
// command that waits for the first token.
func (m *chatTUI) ask(question string) tea.Cmd {
	m.streaming = true
	m.tokens = make(chan tokenMsg, 64)
	m.done = make(chan answerDoneMsg, 1)

	tokens, done := m.tokens, m.done
	q := models.Query{Text: question, SessionID: m.session, ModelID: m.model}
	go func() {
		_, err := m.pipeline.Answer(m.ctx, q, func(token string) error {
			tokens <- tokenMsg(token)
			return nil
		})
		done <- answerDoneMsg{err: err}
	}()

	return m.waitForToken()
}

// waitForToken returns a command delivering the next stream event.
func (m chatTUI) waitForToken() tea.Cmd {
	tokens, done := m.tokens, m.done
	return func() tea.Msg {
		select {
		case token := <-tokens:
			return token
		case d := <-done:
			// Drain tokens raced by completion.
			for {
				select {
				case token := <-tokens:
					return token
				default:
					return d
				}
			}
		}
	}
}

// Update handles messages and returns the updated model.
func (m chatTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.streaming {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()
			m.transcript += m.theme.questionStyle().Render("You: ") + question + "\n"
			m.transcript += m.theme.answerStyle().Render("Podrag: ")
			cmd := m.ask(question)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tokenMsg:
		m.transcript += m.theme.answerStyle().Render(string(msg))
		return m, m.waitForToken()

	case answerDoneMsg:
		m.streaming = false
		if msg.err != nil {
			m.transcript += m.theme.errorStyle().Render(fmt.Sprintf("\nerror: %v", msg.err))
		}
		m.transcript += "\n\n"
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat display.
func (m chatTUI) View() tea.View {
	var b strings.Builder
	b.WriteString(m.transcript)
	if m.streaming {
		b.WriteString("\n" + m.theme.hintStyle().Render("thinking...") + "\n")
	} else {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	return tea.NewView(b.String())
}
