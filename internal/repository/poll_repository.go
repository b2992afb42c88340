package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/classpulse/classpulse-backend/internal/model"
)

// PollRepository persists poll aggregates in the "polls" collection, one
// document per poll. GetByID returns mongo.ErrNoDocuments for unknown IDs.
type PollRepository struct {
	coll *mongo.Collection
}

// NewPollRepository creates a new PollRepository.
func NewPollRepository(db *mongo.Database) *PollRepository {
	return &PollRepository{coll: db.Collection("polls")}
}

// Create inserts a new active poll with an empty question history and roster.
func (r *PollRepository) Create(ctx context.Context, title string) (*model.Poll, error) {
	now := time.Now().UTC()
	poll := &model.Poll{
		ID:           primitive.NewObjectID(),
		Title:        strings.TrimSpace(title),
		Questions:    []model.Question{},
		Participants: []model.Participant{},
		Status:       model.PollStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// GetByID retrieves one poll document.
func (r *PollRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Poll, error) {
	poll := &model.Poll{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(poll); err != nil {
		return nil, err
	}
	return poll, nil
}

// Save replaces the whole poll document. The coordinator serializes saves per
// poll, so replace-by-ID is atomic enough for the lifecycle invariants.
func (r *PollRepository) Save(ctx context.Context, poll *model.Poll) error {
	poll.UpdatedAt = time.Now().UTC()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": poll.ID}, poll)
	return err
}

// ListOverdueActive returns polls whose latest question is still marked live
// although its answer window has already elapsed. Only the latest question of
// a poll can be unended, so an element match on ended=false finds candidates;
// the deadline cut is applied in Go because it depends on per-question limits.
func (r *PollRepository) ListOverdueActive(ctx context.Context, now time.Time) ([]model.Poll, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"questions": bson.M{"$elemMatch": bson.M{"ended": false}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var overdue []model.Poll
	for cursor.Next(ctx) {
		var poll model.Poll
		if err := cursor.Decode(&poll); err != nil {
			return nil, err
		}
		active := poll.ActiveQuestion()
		if active != nil && !active.Ended && active.Expired(now) {
			overdue = append(overdue, poll)
		}
	}
	return overdue, cursor.Err()
}
