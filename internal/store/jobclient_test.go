package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/models"
	"helpdesk/internal/tasks"
)

func setupJobClient(t *testing.T) (*AsynqJobClient, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	jc, err := NewAsynqJobClient(asynq.RedisClientOpt{Addr: mr.Addr()}, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { jc.Close() })
	return jc, mr
}

func TestNewAsynqJobClient_RequiresAddress(t *testing.T) {
	_, err := NewAsynqJobClient(asynq.RedisClientOpt{}, time.Minute)
	assert.Error(t, err)
}

func TestAsynqJobClient_EnqueueRetrain(t *testing.T) {
	jc, mr := setupJobClient(t)
	ctx := context.Background()

	id, err := jc.EnqueueRetrain(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pending := mr.Keys()
	assert.NotEmpty(t, pending, "task should be stored in redis")

	_, err = jc.EnqueueRetrain(ctx)
	assert.ErrorIs(t, err, ErrDuplicate, "second retrain collapses into the pending one")
}

func TestAsynqJobClient_Enqueue(t *testing.T) {
	jc, _ := setupJobClient(t)

	info, err := jc.Enqueue(context.Background(), asynq.NewTask(tasks.TypeRetrainModels, nil), asynq.Queue(models.QueueDefault))
	require.NoError(t, err)
	assert.Equal(t, models.QueueDefault, info.Queue)
	assert.Equal(t, tasks.TypeRetrainModels, info.Type)
}
