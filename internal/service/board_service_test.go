package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
)

type memMessageRepo struct {
	messages []*model.Message
}

func (r *memMessageRepo) Create(ctx context.Context, msg *model.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

func (r *memMessageRepo) ListByBoard(ctx context.Context, board string, limit int64) ([]*model.Message, error) {
	var out []*model.Message
	for i := len(r.messages) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.messages[i].Board == board {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}

type capturingPublisher struct {
	events []*model.NotificationEvent
}

func (p *capturingPublisher) Publish(ev *model.NotificationEvent) {
	p.events = append(p.events, ev)
}

func TestPostAnnouncesOnBoardTopic(t *testing.T) {
	repo := &memMessageRepo{}
	pub := &capturingPublisher{}
	svc := NewBoardService(repo, pub, zap.NewNop())
	ctx := context.Background()

	msg, err := svc.Post(ctx, "general", "u-1", "alice", "anyone up for trivia tonight?")
	require.NoError(t, err)
	assert.Equal(t, "general", msg.Board)
	assert.NotEmpty(t, msg.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "board:general", pub.events[0].Topic)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &payload))
	assert.Equal(t, msg.ID, payload["messageId"])
	assert.Equal(t, "alice", payload["author"])
}

func TestPostRejectsEmptyBody(t *testing.T) {
	svc := NewBoardService(&memMessageRepo{}, &capturingPublisher{}, zap.NewNop())

	_, err := svc.Post(context.Background(), "general", "u-1", "alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestPostRejectsUnknownBoard(t *testing.T) {
	svc := NewBoardService(&memMessageRepo{}, &capturingPublisher{}, zap.NewNop())

	_, err := svc.Post(context.Background(), "warez", "u-1", "alice", "hi")
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	repo := &memMessageRepo{}
	svc := NewBoardService(repo, &capturingPublisher{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Post(ctx, "general", "u-1", "alice", "first")
	require.NoError(t, err)
	_, err = svc.Post(ctx, "general", "u-2", "bob", "second")
	require.NoError(t, err)

	msgs, err := svc.List(ctx, "general", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Body)
	assert.Equal(t, "first", msgs[1].Body)
}
