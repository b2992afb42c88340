package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/classpulse/classpulse-backend/internal/model"
)

// PollStore is the persistence contract the services depend on, satisfied by
// repository.PollRepository. GetByID reports unknown IDs with
// mongo.ErrNoDocuments.
type PollStore interface {
	Create(ctx context.Context, title string) (*model.Poll, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Poll, error)
	Save(ctx context.Context, poll *model.Poll) error
	ListOverdueActive(ctx context.Context, now time.Time) ([]model.Poll, error)
}

// loadPoll fetches a poll and maps a missing document to NotFoundError.
func loadPoll(ctx context.Context, store PollStore, id primitive.ObjectID) (*model.Poll, error) {
	poll, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Msg: "poll not found"}
		}
		return nil, fmt.Errorf("load poll: %w", err)
	}
	return poll, nil
}
