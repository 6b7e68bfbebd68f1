package message

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	MarkRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m := &Message{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Message,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return m, nil
}

func (s *service) List(ctx context.Context) ([]*Message, error) { return s.repo.List(ctx) }

func (s *service) MarkRead(ctx context.Context, id string) error { return s.repo.MarkRead(ctx, id) }

func (s *service) CountUnread(ctx context.Context) (int, error) { return s.repo.CountUnread(ctx) }
