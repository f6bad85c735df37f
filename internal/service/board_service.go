package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
	"github.com/jackyckma/baudagain/internal/repository"
)

var ErrEmptyMessage = errors.New("message body is empty")

// Boards installed on this BBS.
var Boards = []string{"general", "tech", "trading-post"}

// Publisher is the slice of the notification broadcaster board posts go
// through (interface here to keep service free of the notify wiring).
type Publisher interface {
	Publish(ev *model.NotificationEvent)
}

// BoardService handles message boards: posting and reading. Every accepted
// post is announced on the board's notification topic.
type BoardService struct {
	messages  repository.MessageRepo
	publisher Publisher
	logger    *zap.Logger
}

func NewBoardService(messages repository.MessageRepo, publisher Publisher, logger *zap.Logger) *BoardService {
	return &BoardService{
		messages:  messages,
		publisher: publisher,
		logger:    logger,
	}
}

// BoardTopic is the notification topic for one board's activity.
func BoardTopic(board string) string {
	return "board:" + board
}

func validBoard(board string) bool {
	for _, b := range Boards {
		if b == board {
			return true
		}
	}
	return false
}

// Post stores a message and announces it to the board's subscribers.
func (s *BoardService) Post(ctx context.Context, board, authorID, authorHandle, body string) (*model.Message, error) {
	if !validBoard(board) {
		return nil, fmt.Errorf("unknown board %q", board)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	msg := &model.Message{
		ID:           uuid.New().String(),
		Board:        board,
		AuthorID:     authorID,
		AuthorHandle: authorHandle,
		Body:         body,
		PostedAt:     time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"messageId": msg.ID,
		"board":     board,
		"author":    authorHandle,
		"preview":   preview(body),
	})
	if err == nil {
		s.publisher.Publish(&model.NotificationEvent{
			Topic:   BoardTopic(board),
			Payload: payload,
		})
	} else {
		s.logger.Warn("marshal post notification failed", zap.Error(err))
	}

	return msg, nil
}

// List returns the newest messages on a board.
func (s *BoardService) List(ctx context.Context, board string, limit int64) ([]*model.Message, error) {
	if !validBoard(board) {
		return nil, fmt.Errorf("unknown board %q", board)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messages.ListByBoard(ctx, board, limit)
}

func preview(body string) string {
	const max = 80
	if len(body) <= max {
		return body
	}
	return body[:max] + "..."
}
