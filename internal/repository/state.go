package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
)

var ErrStateNotFound = errors.New("state not found")

// StateRepository keeps the 9-character board state of each session.
type StateRepository interface {
	Save(ctx context.Context, id, state string) error
	GetByID(ctx context.Context, id string) (string, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbState struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) StateRepository {
	return &dbState{
		client: client,
	}
}

func stateKey(id string) string {
	return "state:" + id
}

func (that *dbState) Save(ctx context.Context, id, state string) error {
	if _, err := tictactoe.ParseState(state); err != nil {
		return fmt.Errorf("refusing to save state: %w", err)
	}

	if err := that.client.Set(ctx, stateKey(id), state, 0).Err(); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	return nil
}

func (that *dbState) GetByID(ctx context.Context, id string) (string, error) {
	state, err := that.client.Get(ctx, stateKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to get state by id: %w", err)
	}

	return state, nil
}

func (that *dbState) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, stateKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete state by id: %w", err)
	}

	if deleted == 0 {
		return ErrStateNotFound
	}

	return nil
}
