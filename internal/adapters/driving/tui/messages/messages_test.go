package messages

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

func TestMessagesAreTeaMsgs(t *testing.T) {
	var msgs []tea.Msg
	msgs = append(msgs,
		StatusPolled{Status: &domain.ReindexStatus{State: domain.ReindexLoading}},
		OperationFinished{Err: errors.New("boom")},
	)

	polled, ok := msgs[0].(StatusPolled)
	assert.True(t, ok)
	assert.Equal(t, domain.ReindexLoading, polled.Status.State)

	finished, ok := msgs[1].(OperationFinished)
	assert.True(t, ok)
	assert.EqualError(t, finished.Err, "boom")
}
