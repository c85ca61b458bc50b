package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lvcoi/ytapi-go/internal/auth"
	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
	"github.com/lvcoi/ytapi-go/internal/request"
)

var (
	deviceCodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00F5FF"))
	deviceURLStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FDBFF"))
	deviceErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	deviceDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0")).Bold(true)
	deviceSpinStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FDBFF"))
)

type deviceReadyMsg auth.DeviceCodePayload

type deviceResultMsg struct {
	status request.Status
	result *jsonvalue.Value
	err    error
}

type deviceLoginModel struct {
	spin     spinner.Model
	payload  *auth.DeviceCodePayload
	done     bool
	err      error
	result   *jsonvalue.Value
	readyCh  chan auth.DeviceCodePayload
	resultCh chan deviceResultMsg
}

func newDeviceLoginModel() *deviceLoginModel {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = deviceSpinStyle
	return &deviceLoginModel{
		spin:     spin,
		readyCh:  make(chan auth.DeviceCodePayload, 1),
		resultCh: make(chan deviceResultMsg, 1),
	}
}

func (m *deviceLoginModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitReady, m.waitResult)
}

func (m *deviceLoginModel) waitReady() tea.Msg {
	return deviceReadyMsg(<-m.readyCh)
}

func (m *deviceLoginModel) waitResult() tea.Msg {
	return <-m.resultCh
}

func (m *deviceLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		updated, cmd := m.spin.Update(msg)
		m.spin = updated
		return m, cmd
	case deviceReadyMsg:
		payload := auth.DeviceCodePayload(msg)
		m.payload = &payload
		return m, nil
	case deviceResultMsg:
		m.done = true
		m.err = msg.err
		m.result = msg.result
		return m, tea.Quit
	}
	return m, nil
}

func (m *deviceLoginModel) View() string {
	if m.payload == nil {
		return fmt.Sprintf("%s requesting device code...\n", m.spin.View())
	}
	var b string
	b += fmt.Sprintf("Go to %s\n", deviceURLStyle.Render(m.payload.VerificationURL))
	b += fmt.Sprintf("Enter code: %s\n\n", deviceCodeStyle.Render(m.payload.UserCode))
	switch {
	case m.done && m.err != nil:
		b += fmt.Sprintf("%s %v\n", deviceErrorStyle.Render("failed:"), m.err)
	case m.done:
		b += deviceDoneStyle.Render("authorized.") + "\n"
	default:
		b += fmt.Sprintf("%s waiting for authorization...\n", m.spin.View())
	}
	return b
}

// runDeviceLogin drives auth.Pipeline.RequestAuthorizationCode behind a
// bubbletea spinner, returning the final access-token response.
func runDeviceLogin(ctx context.Context, pipeline *auth.Pipeline, scopes []string) (*jsonvalue.Value, error) {
	model := newDeviceLoginModel()
	program := tea.NewProgram(model)

	cancel, err := pipeline.RequestAuthorizationCode(ctx, scopes,
		func(payload auth.DeviceCodePayload) {
			model.readyCh <- payload
		},
		func(status request.Status, result *jsonvalue.Value, err error) {
			model.resultCh <- deviceResultMsg{status: status, result: result, err: err}
		},
	)
	if err != nil {
		return nil, err
	}
	defer cancel()

	// Polling stops without a result once ctx ends (e.g. the --timeout
	// deadline), so report ctx's error to the view in that case.
	go func() {
		<-ctx.Done()
		select {
		case model.resultCh <- deviceResultMsg{status: request.Canceled, err: ctx.Err()}:
		default:
		}
	}()

	finalModel, err := program.Run()
	if err != nil {
		return nil, err
	}
	final := finalModel.(*deviceLoginModel)
	if final.err != nil {
		return nil, final.err
	}
	return final.result, nil
}

// pollWithTimeout is a small helper cmd/ytapi uses to bound how long it
// waits for a device-code login before giving up, independent of the
// pipeline's own expiry deadline.
func pollWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
