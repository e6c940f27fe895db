package console

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/manual-console/internal/domain/model"
)

func TestCanDispatch(t *testing.T) {
	tests := []struct {
		action ActionKind
		n      int
		want   bool
	}{
		{ActionArchive, 0, false},
		{ActionArchive, 1, true},
		{ActionArchive, 5, true},
		{ActionUnarchive, 0, false},
		{ActionDelete, 0, false},
		{ActionDelete, 2, true},
		{ActionApprove, 0, false},
		{ActionApprove, 3, true},
		{ActionUpdate, 0, false},
		{ActionUpdate, 1, true},
		{ActionUpdate, 2, false},
		{ActionStartFineTune, 0, false},
		{ActionStartFineTune, 1, true},
		{ActionStartFineTune, 2, false},
		{ActionPrepareJSONL, 0, true},
		{ActionKind("bogus"), 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanDispatch(tt.action, tt.n), "%s при %d выбранных", tt.action, tt.n)
	}
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("start-finetune")
	assert.True(t, ok)
	assert.Equal(t, ActionStartFineTune, a)

	_, ok = ParseAction("explode")
	assert.False(t, ok)
}

func TestDispatcher_PreconditionSendsNothing(t *testing.T) {
	api := newFakeAPI()
	d := NewDispatcher(api, nil, testLogger())

	res := d.Dispatch(context.Background(), ActionDelete, nil, Extra{})
	assert.ErrorIs(t, res.Err, ErrPrecondition)
	assert.Equal(t, LevelWarning, res.Notification.Level)

	res = d.Dispatch(context.Background(), ActionUpdate, []model.ID{"1", "2"}, Extra{})
	assert.ErrorIs(t, res.Err, ErrPrecondition)

	res = d.Dispatch(context.Background(), ActionRefreshStatus, nil, Extra{RowID: "1"})
	assert.ErrorIs(t, res.Err, ErrPrecondition)

	assert.Zero(t, api.mutationCount())
}

func TestDispatcher_Requests(t *testing.T) {
	api := newFakeAPI()
	d := NewDispatcher(api, nil, testLogger())
	ctx := context.Background()

	res := d.Dispatch(ctx, ActionArchive, []model.ID{"1", "2"}, Extra{})
	require.NoError(t, res.Err)
	assert.Equal(t, mutation{op: "archive", ids: []string{"1", "2"}, flag: true}, api.lastMutation())
	assert.True(t, res.Refresh)

	res = d.Dispatch(ctx, ActionUnarchive, []model.ID{"3"}, Extra{})
	require.NoError(t, res.Err)
	assert.Equal(t, mutation{op: "archive", ids: []string{"3"}, flag: false}, api.lastMutation())

	res = d.Dispatch(ctx, ActionUpdate, []model.ID{"4"}, Extra{Fields: map[string]string{"model": "X"}})
	require.NoError(t, res.Err)
	assert.Equal(t, "update", api.lastMutation().op)
	assert.Equal(t, map[string]string{"model": "X"}, api.lastMutation().fields)

	res = d.Dispatch(ctx, ActionApprove, []model.ID{"5"}, Extra{})
	require.NoError(t, res.Err)
	assert.Equal(t, mutation{op: "approve", ids: []string{"5"}, flag: true}, api.lastMutation())
	assert.True(t, res.Refresh, "одобрение перезагружает текущую страницу")

	res = d.Dispatch(ctx, ActionRefreshStatus, nil, Extra{RowID: "7", TargetID: "file-7", StatusKind: model.StatusKindFile})
	require.NoError(t, res.Err)
	assert.Equal(t, mutation{op: "refresh", targetID: "file-7", rowID: "7", status: "FILE_STATUS"}, api.lastMutation())

	res = d.Dispatch(ctx, ActionPrepareJSONL, nil, Extra{})
	require.NoError(t, res.Err)
	assert.False(t, res.Refresh)
}

func TestDispatcher_Messages(t *testing.T) {
	api := newFakeAPI()
	d := NewDispatcher(api, nil, testLogger())
	ctx := context.Background()

	res := d.Dispatch(ctx, ActionDelete, []model.ID{"1"}, Extra{})
	assert.Equal(t, Notification{Level: LevelSuccess, Message: "Files deleted"}, res.Notification, "текст по умолчанию")

	api.message = "2 files deleted"
	res = d.Dispatch(ctx, ActionDelete, []model.ID{"1"}, Extra{})
	assert.Equal(t, "2 files deleted", res.Notification.Message)

	api.message = "3 records"
	res = d.Dispatch(ctx, ActionApprove, []model.ID{"1"}, Extra{})
	assert.Equal(t, "3 records Data Approved", res.Notification.Message)

	api.message = "faq-2026.jsonl"
	res = d.Dispatch(ctx, ActionPrepareJSONL, nil, Extra{})
	assert.Equal(t, "faq-2026.jsonl created", res.Notification.Message)

	api.message = ""
	api.mutateErr = serverError("quota exceeded")
	res = d.Dispatch(ctx, ActionStartFineTune, []model.ID{"1"}, Extra{})
	require.Error(t, res.Err)
	assert.Equal(t, Notification{Level: LevelError, Message: "quota exceeded"}, res.Notification)

	api.mutateErr = context.DeadlineExceeded
	res = d.Dispatch(ctx, ActionApprove, []model.ID{"1"}, Extra{})
	assert.Equal(t, "Failed to approve", res.Notification.Message, "текст ошибки по умолчанию")
}

// blockingMutator блокирует StartFineTune до закрытия release.
type blockingMutator struct {
	*fakeAPI
	entered chan struct{}
	release chan struct{}
}

func (b *blockingMutator) StartFineTune(ctx context.Context, id string) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.fakeAPI.StartFineTune(ctx, id)
}

func TestDispatcher_InFlightGuard(t *testing.T) {
	api := &blockingMutator{fakeAPI: newFakeAPI(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	d := NewDispatcher(api, metrics, testLogger())

	var wg sync.WaitGroup
	var first Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = d.Dispatch(context.Background(), ActionStartFineTune, []model.ID{"1"}, Extra{})
	}()
	<-api.entered

	assert.True(t, d.InFlight(ActionStartFineTune))
	second := d.Dispatch(context.Background(), ActionStartFineTune, []model.ID{"1"}, Extra{})
	assert.ErrorIs(t, second.Err, ErrInFlight)

	close(api.release)
	wg.Wait()

	require.NoError(t, first.Err)
	assert.False(t, d.InFlight(ActionStartFineTune))
	assert.Equal(t, 1, api.mutationCount(), "повторный запуск не отправлен")
	assert.Equal(t, 1.0, counterValue(t, reg, "mc_console_dispatch_total", map[string]string{"action": "start-finetune", "outcome": "in_flight"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "mc_console_dispatch_total", map[string]string{"action": "start-finetune", "outcome": "success"}))
}

func TestDispatcher_UnknownAction(t *testing.T) {
	d := NewDispatcher(newFakeAPI(), nil, testLogger())
	res := d.Dispatch(context.Background(), ActionKind("explode"), []model.ID{"1"}, Extra{})
	assert.ErrorIs(t, res.Err, ErrUnknownAction)
}
