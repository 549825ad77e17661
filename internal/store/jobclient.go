package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/models"
	"helpdesk/internal/tasks"
)

// AsynqJobClient enqueues background jobs on Redis through asynq.
type AsynqJobClient struct {
	client       *asynq.Client
	trainTimeout time.Duration
}

// Ensure AsynqJobClient satisfies JobClient
var _ JobClient = (*AsynqJobClient)(nil)

func NewAsynqJobClient(opts asynq.RedisClientOpt, trainTimeout time.Duration) (*AsynqJobClient, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty for AsynqJobClient")
	}
	if trainTimeout <= 0 {
		trainTimeout = 10 * time.Minute
	}
	return &AsynqJobClient{client: asynq.NewClient(opts), trainTimeout: trainTimeout}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("AsynqJobClient internal client is not initialized")
	}
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil, fmt.Errorf("%w: %s already queued", ErrDuplicate, task.Type())
		}
		return nil, err
	}
	log.WithFields(log.Fields{"task_type": task.Type(), "task_id": info.ID, "queue": info.Queue}).Debug("enqueued task")
	return info, nil
}

// EnqueueRetrain queues a retrain on the training queue. While one is
// pending or running, further requests fail with ErrDuplicate.
func (jc *AsynqJobClient) EnqueueRetrain(ctx context.Context) (string, error) {
	task := asynq.NewTask(tasks.TypeRetrainModels, nil)
	info, err := jc.Enqueue(ctx, task,
		asynq.Queue(models.QueueTraining),
		asynq.MaxRetry(1),
		asynq.Timeout(jc.trainTimeout),
		asynq.Unique(jc.trainTimeout+time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue retrain job: %w", err)
	}

	jobID, err := uuid.Parse(info.ID)
	if err != nil {
		// the job is queued either way; keep the raw id
		log.WithError(err).WithField("task_id", info.ID).Warn("asynq task id is not a UUID")
		return info.ID, nil
	}
	return jobID.String(), nil
}
