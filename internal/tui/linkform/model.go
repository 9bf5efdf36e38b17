// Package linkform is the interactive broker credential form.
package linkform

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/linkwizard/internal/credentials"
	"github.com/mark3labs/linkwizard/internal/submission"
)

// SubmitFunc sends the form. It is usually Submitter.Submit.
type SubmitFunc func(ctx context.Context, form credentials.Form) (submission.ConnectedAccount, error)

// submitResultMsg carries the outcome of a submission back to Update.
type submitResultMsg struct {
	account submission.ConnectedAccount
	err     error
}

// Model is the credential form. Fields unlock left to right as the validator
// allows; locked fields keep their values.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	submit   SubmitFunc
	onCancel func()

	inputs     []textinput.Model // indexed by credentials.Field
	focus      credentials.Field
	form       credentials.Form
	validation credentials.Validation

	submitting bool
	failure    string
	account    *submission.ConnectedAccount
	cancelled  bool

	width  int
	height int
}

// New creates a form that submits through submit. onCancel, if set, runs
// when the user leaves the form; a submission still in flight is cancelled
// and its result must be dropped by the caller (Submitter.Detach).
func New(ctx context.Context, submit SubmitFunc, onCancel func()) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:      ctx,
		cancel:   cancel,
		submit:   submit,
		onCancel: onCancel,
		width:    80,
		height:   24,
	}

	for _, field := range credentials.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.SetStyles(inputStyles)
		ti.SetWidth(44)
		switch field {
		case credentials.FieldAccountID:
			ti.Placeholder = "7-digit account ID"
			ti.CharLimit = credentials.AccountIDLength
		case credentials.FieldAccessKey:
			ti.Placeholder = credentials.AccessKeyPrefix + "..."
			ti.CharLimit = 128
		case credentials.FieldAccessSecret:
			ti.Placeholder = fmt.Sprintf("at least %d characters", credentials.MinSecretLength)
			ti.CharLimit = 256
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		case credentials.FieldDisplayName:
			ti.Placeholder = "e.g. Main account"
			ti.CharLimit = 64
		}
		m.inputs = append(m.inputs, ti)
	}

	m.inputs[credentials.FieldAccountID].Focus()
	m.validation = credentials.Validate(m.form)
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Form returns the current raw values.
func (m *Model) Form() credentials.Form {
	return m.form
}

// Focused returns the field that has keyboard focus.
func (m *Model) Focused() credentials.Field {
	return m.focus
}

// Validation returns the latest validation result.
func (m *Model) Validation() credentials.Validation {
	return m.validation
}

// Failure returns the user-facing message of the last failed submission.
func (m *Model) Failure() string {
	return m.failure
}

// Submitting reports whether a submission is running.
func (m *Model) Submitting() bool {
	return m.submitting
}

// Result returns the linked account, or nil if the form was cancelled.
func (m *Model) Result() *submission.ConnectedAccount {
	return m.account
}

// Cancelled reports whether the user left without linking.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// Update handles input.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case submitResultMsg:
		return m, m.handleResult(msg)

	case tea.PasteMsg:
		if m.submitting || !m.validation.Enabled(m.focus) {
			return m, nil
		}
		v := m.form.Paste(m.focus, msg.Content)
		m.inputs[m.focus].SetValue(v)
		m.revalidate()
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.leave()
			return m, tea.Quit
		case "tab", "down":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "enter":
			if m.submitting {
				return m, nil
			}
			if m.validation.CanSubmit {
				m.submitting = true
				m.failure = ""
				return m, m.submitCmd()
			}
			return m, m.moveFocus(1)
		}
		if m.submitting {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if v := m.inputs[m.focus].Value(); v != m.form.Get(m.focus) {
		m.form.Set(m.focus, v)
		m.revalidate()
	}
	return m, cmd
}

func (m *Model) handleResult(msg submitResultMsg) tea.Cmd {
	m.submitting = false

	if msg.err == nil {
		account := msg.account
		m.account = &account
		return tea.Quit
	}

	var f *submission.Failure
	switch {
	case m.cancelled, errors.Is(msg.err, submission.ErrDetached):
	case errors.Is(msg.err, submission.ErrInFlight):
	case errors.As(msg.err, &f):
		m.failure = f.Message
	case errors.Is(msg.err, submission.ErrAlreadyLinked):
		m.failure = "This account is already linked."
		return tea.Quit
	default:
		m.failure = msg.err.Error()
	}
	return nil
}

// leave marks the form cancelled, detaches the caller and aborts a running
// submission.
func (m *Model) leave() {
	if m.cancelled {
		return
	}
	m.cancelled = true
	if m.onCancel != nil {
		m.onCancel()
	}
	m.cancel()
}

func (m *Model) submitCmd() tea.Cmd {
	ctx, submit, form := m.ctx, m.submit, m.form
	return func() tea.Msg {
		account, err := submit(ctx, form)
		return submitResultMsg{account: account, err: err}
	}
}

func (m *Model) revalidate() {
	m.validation = credentials.Validate(m.form)
	if !m.validation.Enabled(m.focus) {
		m.setFocus(credentials.FieldAccountID)
	}
}

// moveFocus steps to the next enabled field in direction dir, wrapping.
func (m *Model) moveFocus(dir int) tea.Cmd {
	n := len(credentials.Fields)
	next := int(m.focus)
	for range n {
		next = (next + dir + n) % n
		if m.validation.Enabled(credentials.Field(next)) {
			return m.setFocus(credentials.Field(next))
		}
	}
	return nil
}

func (m *Model) setFocus(field credentials.Field) tea.Cmd {
	if field == m.focus {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[field].Focus()
}

// View renders the form.
func (m *Model) View() tea.View {
	var view tea.View

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(m.render()).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (m *Model) render() string {
	var rows []string
	rows = append(rows, styleTitle.Render("Link your broker account"), "")

	for _, field := range credentials.Fields {
		label := field.Label()
		switch {
		case !m.validation.Enabled(field):
			rows = append(rows, styleLocked.Render(label+"  (locked)"))
		case field == m.focus:
			rows = append(rows, styleLabelFocused.Render("› "+label))
		default:
			rows = append(rows, styleLabel.Render("  "+label))
		}
		rows = append(rows, "  "+m.inputs[field].View())
		if msg, ok := m.validation.Errors[field]; ok {
			rows = append(rows, "  "+styleInlineError.Render(msg))
		}
		rows = append(rows, "")
	}

	switch {
	case m.submitting:
		rows = append(rows, styleStatus.Render("Linking account..."))
	case m.failure != "":
		rows = append(rows, styleFailure.Render(m.failure))
	case m.validation.CanSubmit:
		rows = append(rows, styleReady.Render("Ready. Press enter to link."))
	}
	rows = append(rows, "", renderHintBar("tab", "next field", "enter", "link", "esc", "cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styleContainer.Render(content)
}

// Run shows the form until the user links an account or cancels. A nil
// account means cancelled.
func Run(ctx context.Context, submit SubmitFunc, onCancel func()) (*submission.ConnectedAccount, error) {
	m := New(ctx, submit, onCancel)
	defer m.cancel()
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("credential form failed: %w", err)
	}

	fm, ok := finalModel.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", finalModel)
	}
	return fm.Result(), nil
}
