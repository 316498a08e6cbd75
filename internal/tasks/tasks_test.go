package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/tasks"
)

type recordingQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingQueue) EnqueueContext(_ context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, t)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func TestEnqueueReceiptCarriesSaleID(t *testing.T) {
	q := &recordingQueue{}
	saleID := uuid.New()
	require.NoError(t, tasks.Client{Q: q}.EnqueueReceipt(context.Background(), saleID))
	require.Len(t, q.tasks, 1)
	require.Equal(t, tasks.TypeReceiptRender, q.tasks[0].Type())

	p, err := tasks.ParseReceipt(q.tasks[0])
	require.NoError(t, err)
	require.Equal(t, saleID, p.SaleID)
	require.Len(t, q.opts[0], 3)
}

func TestEnqueueDuplicateIsNotAnError(t *testing.T) {
	q := &recordingQueue{err: asynq.ErrTaskIDConflict}
	require.NoError(t, tasks.Client{Q: q}.EnqueueWebhook(context.Background(), uuid.New(), uuid.New()))

	q.err = errors.New("redis down")
	require.Error(t, tasks.Client{Q: q}.EnqueueWebhook(context.Background(), uuid.New(), uuid.New()))
}

func TestParseRejectsMalformedPayloads(t *testing.T) {
	_, err := tasks.ParseReceipt(asynq.NewTask(tasks.TypeReceiptRender, []byte(`{`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	_, err = tasks.ParseWebhook(asynq.NewTask(tasks.TypeWebhookDeliver, []byte(`{"endpointId":"`+uuid.NewString()+`"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := tasks.NewWebhookTask(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = tasks.ParseWebhook(task)
	require.NoError(t, err)
}

func TestReportsWarmTask(t *testing.T) {
	task := tasks.NewReportsWarmTask()
	require.Equal(t, tasks.TypeReportsWarm, task.Type())
	require.Empty(t, task.Payload())
	require.Greater(t, tasks.Queues[tasks.QueueCritical], tasks.Queues[tasks.QueueLow])
}
