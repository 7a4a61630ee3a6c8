package messagestore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/store/scope"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Chat bodies may carry basic formatting and links; everything else is
// stripped.
var sanitize = bluemonday.UGCPolicy()

var (
	// ErrNotSender is returned when a user edits or deletes a message they
	// did not send (and lacks an elevated role for deletes).
	ErrNotSender = errors.New("only the sender may modify this message")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Create inserts a chat message. RecipientID nil means a company-wide group
// message. The sender's own read receipt is recorded immediately.
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	now := time.Now()
	m.ID = primitive.NewObjectID()
	m.Body = sanitize.Sanitize(m.Body)
	m.ReadBy = []models.ReadReceipt{{UserID: m.SenderID, ReadAt: now}}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// Get loads one message within the company, deleted ones included; callers
// decide how to present deletions.
func (s *Store) Get(ctx context.Context, companyID, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, scope.ByID(companyID, id)).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFilter selects a conversation slice. With Direct set, only the
// two-party thread between Viewer and Other is returned; otherwise the
// company group thread (recipient nil).
type ListFilter struct {
	Viewer primitive.ObjectID
	Other  primitive.ObjectID
	Direct bool
	Before *time.Time
	Limit  int
}

const defaultPageSize = 50

// List returns messages newest-first up to the limit. Soft-deleted messages
// stay in the thread as tombstones so clients can render placeholders, but
// their content is blanked before they leave the store.
func (s *Store) List(ctx context.Context, companyID primitive.ObjectID, f ListFilter) ([]models.Message, error) {
	filter := scope.Company(companyID)
	if f.Direct {
		filter["$or"] = bson.A{
			bson.M{"sender_id": f.Viewer, "recipient_id": f.Other},
			bson.M{"sender_id": f.Other, "recipient_id": f.Viewer},
		}
	} else {
		filter["recipient_id"] = nil
	}
	if f.Before != nil {
		filter["created_at"] = bson.M{"$lt": *f.Before}
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].IsDeleted {
			msgs[i].Body = ""
			msgs[i].OriginalBody = ""
			msgs[i].Attachments = nil
			msgs[i].Reactions = nil
		}
	}
	return msgs, nil
}

// MarkRead records a read receipt. Re-reading is a no-op; the first ReadAt
// stands.
func (s *Store) MarkRead(ctx context.Context, companyID, msgID, userID primitive.ObjectID) error {
	filter := scope.ByID(companyID, msgID)
	filter["read_by.user_id"] = bson.M{"$ne": userID}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"read_by": models.ReadReceipt{UserID: userID, ReadAt: time.Now()}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either already read or out of scope; confirm the message exists.
		if err := s.c.FindOne(ctx, scope.ByID(companyID, msgID)).Err(); err != nil {
			return err
		}
	}
	return nil
}

// UnreadCount counts messages visible to the user that they have not read:
// group messages plus directs addressed to them, excluding their own and
// deleted ones.
func (s *Store) UnreadCount(ctx context.Context, companyID, userID primitive.ObjectID) (int64, error) {
	filter := scope.Company(companyID)
	filter["sender_id"] = bson.M{"$ne": userID}
	filter["is_deleted"] = false
	filter["$or"] = bson.A{
		bson.M{"recipient_id": nil},
		bson.M{"recipient_id": userID},
	}
	filter["read_by.user_id"] = bson.M{"$ne": userID}
	return s.c.CountDocuments(ctx, filter)
}

// MarkAllRead stamps a read receipt on every message currently visible and
// unread for the user, and returns how many were marked.
func (s *Store) MarkAllRead(ctx context.Context, companyID, userID primitive.ObjectID) (int64, error) {
	filter := scope.Company(companyID)
	filter["sender_id"] = bson.M{"$ne": userID}
	filter["is_deleted"] = false
	filter["$or"] = bson.A{
		bson.M{"recipient_id": nil},
		bson.M{"recipient_id": userID},
	}
	filter["read_by.user_id"] = bson.M{"$ne": userID}

	res, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$push": bson.M{"read_by": models.ReadReceipt{UserID: userID, ReadAt: time.Now()}},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Edit replaces the body of the sender's own message. The pre-edit body is
// kept from the first edit onward.
func (s *Store) Edit(ctx context.Context, companyID, msgID, senderID primitive.ObjectID, body string) (*models.Message, error) {
	current, err := s.Get(ctx, companyID, msgID)
	if err != nil {
		return nil, err
	}
	if current.SenderID != senderID {
		return nil, ErrNotSender
	}

	now := time.Now()
	set := bson.M{
		"body":       sanitize.Sanitize(body),
		"is_edited":  true,
		"edited_at":  now,
		"updated_at": now,
	}
	if !current.IsEdited {
		set["original_body"] = current.Body
	}

	filter := scope.ByID(companyID, msgID)
	filter["sender_id"] = senderID

	var m models.Message
	err = s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SoftDelete tombstones a message. Senders may delete their own; elevated
// callers may delete any message in their company.
func (s *Store) SoftDelete(ctx context.Context, companyID, msgID, userID primitive.ObjectID, elevated bool) error {
	filter := scope.ByID(companyID, msgID)
	if !elevated {
		filter["sender_id"] = userID
	}

	now := time.Now()
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"is_deleted": true,
		"deleted_at": now,
		"deleted_by": userID,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "not yours" from "not found".
		if err := s.c.FindOne(ctx, scope.ByID(companyID, msgID)).Err(); err != nil {
			return err
		}
		return ErrNotSender
	}
	return nil
}

// ToggleReaction adds the user to the emoji's reaction group, or removes them
// if already present. Empty reaction groups are pruned.
func (s *Store) ToggleReaction(ctx context.Context, companyID, msgID, userID primitive.ObjectID, emoji string) (*models.Message, error) {
	// Try removal first.
	removeFilter := scope.ByID(companyID, msgID)
	removeFilter["reactions"] = bson.M{"$elemMatch": bson.M{"emoji": emoji, "user_ids": userID}}
	res, err := s.c.UpdateOne(ctx, removeFilter, bson.M{
		"$pull": bson.M{"reactions.$.user_ids": userID},
	})
	if err != nil {
		return nil, err
	}

	if res.MatchedCount == 0 {
		// Not reacted yet: add to the existing emoji group, or start one.
		addFilter := scope.ByID(companyID, msgID)
		addFilter["reactions.emoji"] = emoji
		res, err = s.c.UpdateOne(ctx, addFilter, bson.M{
			"$addToSet": bson.M{"reactions.$.user_ids": userID},
		})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			_, err = s.c.UpdateOne(ctx, scope.ByID(companyID, msgID), bson.M{
				"$push": bson.M{"reactions": models.Reaction{Emoji: emoji, UserIDs: []primitive.ObjectID{userID}}},
			})
			if err != nil {
				return nil, err
			}
		}
	} else {
		// Drop any now-empty groups.
		_, err = s.c.UpdateOne(ctx, scope.ByID(companyID, msgID), bson.M{
			"$pull": bson.M{"reactions": bson.M{"user_ids": bson.M{"$size": 0}}},
		})
		if err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, companyID, msgID)
}

// RemoveReaction drops the user from one emoji's reaction group. Removing a
// reaction that was never there is a no-op; a missing message is still
// mongo.ErrNoDocuments.
func (s *Store) RemoveReaction(ctx context.Context, companyID, msgID, userID primitive.ObjectID, emoji string) (*models.Message, error) {
	filter := scope.ByID(companyID, msgID)
	filter["reactions"] = bson.M{"$elemMatch": bson.M{"emoji": emoji, "user_ids": userID}}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"reactions.$.user_ids": userID},
	})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount > 0 {
		_, err = s.c.UpdateOne(ctx, scope.ByID(companyID, msgID), bson.M{
			"$pull": bson.M{"reactions": bson.M{"user_ids": bson.M{"$size": 0}}},
		})
		if err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, companyID, msgID)
}

// SetPinned pins or unpins a message. Authorization is the handler's job.
func (s *Store) SetPinned(ctx context.Context, companyID, msgID, userID primitive.ObjectID, pinned bool) (*models.Message, error) {
	now := time.Now()
	var update bson.M
	if pinned {
		update = bson.M{"$set": bson.M{
			"is_pinned":  true,
			"pinned_at":  now,
			"pinned_by":  userID,
			"updated_at": now,
		}}
	} else {
		update = bson.M{
			"$set":   bson.M{"is_pinned": false, "updated_at": now},
			"$unset": bson.M{"pinned_at": "", "pinned_by": ""},
		}
	}

	var m models.Message
	err := s.c.FindOneAndUpdate(ctx, scope.ByID(companyID, msgID), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPinned returns the company's pinned messages, most recently pinned
// first.
func (s *Store) ListPinned(ctx context.Context, companyID primitive.ObjectID) ([]models.Message, error) {
	filter := scope.Company(companyID)
	filter["is_pinned"] = true
	filter["is_deleted"] = false

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "pinned_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Search matches message bodies case-insensitively within the company,
// excluding deleted messages.
func (s *Store) Search(ctx context.Context, companyID primitive.ObjectID, query string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	filter := scope.Company(companyID)
	filter["is_deleted"] = false
	// Literal substring match; the query is user input, not a pattern.
	filter["body"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
