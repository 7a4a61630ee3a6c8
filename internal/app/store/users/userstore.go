package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/system/normalize"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"manager"|"employee"`)
)

// Invalidator receives user IDs whose cached records must be dropped after a
// write. The auth gate's cache satisfies this.
type Invalidator interface {
	InvalidateUser(id primitive.ObjectID)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateUser(primitive.ObjectID) {}

type Store struct {
	c     *mongo.Collection
	inval Invalidator
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), inval: noopInvalidator{}}
}

// WithInvalidator attaches a cache invalidator called after every write that
// changes a user's profile, role, or memberships.
func (s *Store) WithInvalidator(inv Invalidator) *Store {
	if inv != nil {
		s.inval = inv
	}
	return s
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with a bcrypt-hashed password and a single
// active membership in the given company, set as their current company.
func (s *Store) Create(ctx context.Context, u models.User, password, role string, companyID primitive.ObjectID) (models.User, error) {
	role = normalize.Role(role)
	if !tenant.ValidRole(role) {
		return models.User{}, errBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now()
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Username == "" {
		u.Username = normalize.Username(u.Email)
	}
	u.Password = string(hash)
	u.Companies = []models.CompanyMembership{
		{CompanyID: companyID, Role: role, IsActive: true, JoinedAt: now},
	}
	u.CurrentCompany = &companyID
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// SetPassword replaces the user's password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password":   string(hash),
		"updated_at": time.Now(),
	}})
	if err == nil {
		s.inval.InvalidateUser(id)
	}
	return err
}

// ProfileUpdate holds the self-service profile fields.
type ProfileUpdate struct {
	Name           string
	Phone          string
	Department     string
	ProfilePicture string
}

// UpdateProfile updates profile fields. Empty fields are left unchanged, so
// a caller can set a single field without clobbering the rest.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{
		"updated_at": time.Now(),
	}
	if upd.Name != "" {
		name := normalize.Name(upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Phone != "" {
		set["phone"] = upd.Phone
	}
	if upd.Department != "" {
		set["department"] = upd.Department
	}
	if upd.ProfilePicture != "" {
		set["profile_picture"] = upd.ProfilePicture
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		afterUpdate(),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	s.inval.InvalidateUser(id)
	return &u, nil
}

// ListByCompany returns all users holding an active membership in the
// company, passwords excluded by the model's json tags.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"companies": bson.M{"$elemMatch": bson.M{
		"company_id": companyID,
		"is_active":  true,
	}}})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetCompanyMember loads one user and verifies they hold an active membership
// in the company. Returns mongo.ErrNoDocuments when the user exists but is
// not a member, so out-of-tenant lookups are indistinguishable from missing
// users.
func (s *Store) GetCompanyMember(ctx context.Context, companyID, userID primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{
		"_id": userID,
		"companies": bson.M{"$elemMatch": bson.M{
			"company_id": companyID,
			"is_active":  true,
		}},
	}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddMembership appends a membership for the company, activating the user
// there. Existing membership in the same company is reactivated instead of
// duplicated. When the user has no current company, the new one becomes it.
func (s *Store) AddMembership(ctx context.Context, userID, companyID primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !tenant.ValidRole(role) {
		return errBadRole
	}

	// Reactivate first; $ positional only matches an existing entry.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "companies.company_id": companyID},
		bson.M{"$set": bson.M{
			"companies.$.is_active": true,
			"companies.$.role":      role,
			"updated_at":            time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		_, err = s.c.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{
				"$push": bson.M{"companies": models.CompanyMembership{
					CompanyID: companyID,
					Role:      role,
					IsActive:  true,
					JoinedAt:  time.Now(),
				}},
				"$set": bson.M{"updated_at": time.Now()},
			},
		)
		if err != nil {
			return err
		}
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "current_company": nil},
		bson.M{"$set": bson.M{"current_company": companyID}},
	)
	if err == nil {
		s.inval.InvalidateUser(userID)
	}
	return err
}

// UpdateMemberRole changes the user's role within one company. Roles in other
// companies are untouched.
func (s *Store) UpdateMemberRole(ctx context.Context, companyID, userID primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !tenant.ValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "companies.company_id": companyID},
		bson.M{"$set": bson.M{
			"companies.$.role": role,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.inval.InvalidateUser(userID)
	return nil
}

// DeactivateMembership removes the user from the company by flipping the
// membership inactive. If the company was their current one, the pointer is
// cleared so their next request fails tenant resolution instead of acting in
// a company they left.
func (s *Store) DeactivateMembership(ctx context.Context, companyID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "companies.company_id": companyID},
		bson.M{"$set": bson.M{
			"companies.$.is_active": false,
			"updated_at":            time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "current_company": companyID},
		bson.M{"$unset": bson.M{"current_company": ""}},
	)
	if err == nil {
		s.inval.InvalidateUser(userID)
	}
	return err
}

// SetCurrentCompany switches the user's active company. The membership must
// exist and be active.
func (s *Store) SetCurrentCompany(ctx context.Context, userID, companyID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "companies": bson.M{"$elemMatch": bson.M{
			"company_id": companyID,
			"is_active":  true,
		}}},
		bson.M{"$set": bson.M{
			"current_company": companyID,
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.inval.InvalidateUser(userID)
	return nil
}

// UpdateEmail changes the user's login email. Returns ErrDuplicateEmail when
// another account already holds it.
func (s *Store) UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"email":      normalize.Email(email),
			"updated_at": time.Now(),
		}},
		afterUpdate(),
	).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.inval.InvalidateUser(id)
	return &u, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
