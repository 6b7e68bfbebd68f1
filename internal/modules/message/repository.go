package message

import "context"

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// List returns all messages, newest first.
	List(ctx context.Context) ([]*Message, error)
	MarkRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)
}
