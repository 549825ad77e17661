package mock_store

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"helpdesk/internal/store"
)

type JobClient struct {
	mock.Mock
}

var _ store.JobClient = (*JobClient)(nil)

func (m *JobClient) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func (m *JobClient) EnqueueRetrain(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *JobClient) Close() error {
	return m.Called().Error(0)
}
