package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-datasets/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// DefaultPollInterval is how often the dataset status is refreshed.
const DefaultPollInterval = 200 * time.Millisecond

const maxBarWidth = 60

// Operation is the index lifecycle call tracked by the view. It must
// honour ctx cancellation between batches.
type Operation func(ctx context.Context) (*domain.Dataset, error)

// App renders the progress of one index operation on a dataset.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports

	// ctx is the parent context; opCtx is cancelled by the cancel key.
	ctx    context.Context
	opCtx  context.Context
	cancel context.CancelFunc

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model

	datasetID string
	title     string
	op        Operation

	pollInterval time.Duration

	status  *domain.ReindexStatus
	dataset *domain.Dataset
	err     error

	finished   bool
	cancelling bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress view for op running against datasetID.
func NewApp(ports *Ports, datasetID, title string, op Operation) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating progress view: %w", err)
	}
	if op == nil {
		return nil, ErrMissingOperation
	}

	s := styles.DefaultStyles()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(s.Title),
	)

	a := &App{
		ports:        ports,
		styles:       s,
		keymap:       keymap.DefaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		datasetID:    datasetID,
		title:        title,
		op:           op,
		pollInterval: DefaultPollInterval,
		status:       &domain.ReindexStatus{DatasetID: datasetID, State: domain.ReindexIdle},
	}
	return a.WithContext(context.Background()), nil
}

// WithContext sets the parent context for the operation and status polls.
func (a *App) WithContext(ctx context.Context) *App {
	if a.cancel != nil {
		a.cancel()
	}
	a.ctx = ctx
	a.opCtx, a.cancel = context.WithCancel(ctx)
	return a
}

// WithPollInterval overrides how often the status is refreshed.
func (a *App) WithPollInterval(d time.Duration) *App {
	if d > 0 {
		a.pollInterval = d
	}
	return a
}

// Init implements tea.Model. It starts the operation, the spinner and the
// first status poll.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.runOperation(),
		a.pollAfter(a.pollInterval),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.bar.Width = min(maxBarWidth, max(10, msg.Width-4))
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keymap.Cancel):
			if a.finished {
				return a, tea.Quit
			}
			a.cancelling = true
			a.cancel()
			return a, nil
		case key.Matches(msg, a.keymap.Hide):
			if a.finished {
				return a, tea.Quit
			}
		}
		return a, nil

	case spinner.TickMsg:
		if a.finished {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.StatusPolled:
		if msg.Err == nil && msg.Status != nil {
			a.status = msg.Status
		}
		if a.finished {
			return a, nil
		}
		return a, a.pollAfter(a.pollInterval)

	case messages.OperationFinished:
		a.finished = true
		a.dataset = msg.Dataset
		a.err = msg.Err
		// One last poll so the view shows the terminal state before exiting.
		return a, tea.Sequence(a.pollNow(), tea.Quit)
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render(a.title))
	b.WriteString("\n\n")

	state := a.status.State
	indicator := a.spinner.View() + " "
	if a.finished {
		indicator = ""
	}
	b.WriteString(a.styles.Field("state", indicator+a.styles.State(state).Render(state.String())))
	b.WriteString("\n")
	b.WriteString(a.styles.Field("dataset", a.datasetID))
	b.WriteString("\n")
	if a.status.From != nil || a.status.To != nil {
		b.WriteString(a.styles.Field("column", columnLabel(a.status.From)+" -> "+columnLabel(a.status.To)))
		b.WriteString("\n")
	}
	if a.status.BatchesTotal > 0 {
		batches := fmt.Sprintf("%d / %d", a.status.BatchesDone, a.status.BatchesTotal)
		b.WriteString(a.styles.Field("batches", batches))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.bar.ViewAs(a.status.Progress()))
	b.WriteString("\n\n")

	switch {
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	case a.status.Error != "":
		b.WriteString(a.styles.Error.Render("Error: " + a.status.Error))
		b.WriteString("\n")
	case a.cancelling && !a.finished:
		b.WriteString(a.styles.Warning.Render("Cancelling after the current batch..."))
		b.WriteString("\n")
	}

	if !a.finished {
		b.WriteString(a.help.ShortHelpView(a.keymap.ShortHelp()))
		b.WriteString("\n")
	}
	return b.String()
}

// Result returns the outcome of the tracked operation. ErrInterrupted is
// returned when the view exited before the operation reported back.
func (a *App) Result() (*domain.Dataset, error) {
	if !a.finished {
		return nil, ErrInterrupted
	}
	return a.dataset, a.err
}

// Status returns the last polled status.
func (a *App) Status() *domain.ReindexStatus {
	return a.status
}

// Finished reports whether the operation has returned.
func (a *App) Finished() bool {
	return a.finished
}

func (a *App) runOperation() tea.Cmd {
	op, ctx := a.op, a.opCtx
	return func() tea.Msg {
		ds, err := op(ctx)
		return messages.OperationFinished{Dataset: ds, Err: err}
	}
}

func (a *App) pollAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return a.fetchStatus()
	})
}

func (a *App) pollNow() tea.Cmd {
	return func() tea.Msg {
		return a.fetchStatus()
	}
}

func (a *App) fetchStatus() tea.Msg {
	st, err := a.ports.Index.Status(a.ctx, a.datasetID)
	return messages.StatusPolled{Status: st, Err: err}
}

func columnLabel(col *string) string {
	if col == nil {
		return "(none)"
	}
	return *col
}

// Run shows the progress view until op returns and reports its outcome.
func Run(
	ctx context.Context,
	ports *Ports,
	datasetID, title string,
	op Operation,
	opts ...tea.ProgramOption,
) (*domain.Dataset, error) {
	app, err := NewApp(ports, datasetID, title, op)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)
	defer app.cancel()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(app, opts...)
	if _, err := p.Run(); err != nil && !app.finished {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	return app.Result()
}
