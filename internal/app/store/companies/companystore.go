package companystore

import (
	"context"
	"errors"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/system/normalize"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when a company with the same folded name
// already exists.
var ErrDuplicateName = errors.New("a company with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

// GetByID loads a company by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var c models.Company
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByName looks up a company by case-insensitive name. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Company, error) {
	var c models.Company
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(normalize.Name(name))}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new company with default settings.
func (s *Store) Create(ctx context.Context, name string) (models.Company, error) {
	now := time.Now()
	c := models.Company{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(name),
		NameCI:    text.Fold(normalize.Name(name)),
		Settings:  models.DefaultCompanySettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Company{}, ErrDuplicateName
		}
		return models.Company{}, err
	}
	return c, nil
}

// GetOrCreate returns the company with the given name, creating it when
// absent. A concurrent create racing the lookup resolves to the winner's
// document.
func (s *Store) GetOrCreate(ctx context.Context, name string) (*models.Company, bool, error) {
	existing, err := s.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}
	created, err := s.Create(ctx, name)
	if err == ErrDuplicateName {
		existing, err := s.GetByName(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// SettingsUpdate holds the mutable company fields.
type SettingsUpdate struct {
	Description string
	Industry    string
	Website     string
	Address     *models.Address
	Settings    *models.CompanySettings
}

// Update applies a settings update and returns the fresh document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd SettingsUpdate) (*models.Company, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Description != "" {
		set["description"] = upd.Description
	}
	if upd.Industry != "" {
		set["industry"] = upd.Industry
	}
	if upd.Website != "" {
		set["website"] = upd.Website
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Settings != nil {
		set["settings"] = *upd.Settings
	}

	var c models.Company
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
