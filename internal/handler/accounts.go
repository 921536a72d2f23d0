package handler

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// Portal names.  Each portal authenticates against its own collection.
const (
	PortalCompany = "company"
	PortalStudent = "student"
	PortalGeneral = "general"
)

// Signup is the role-neutral signup payload handed to an Accounts store.
// PasswordHash is already bcrypt hashed.
type Signup struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
	FirstName    string
	LastName     string
	CompanyName  string
}

// Accounts is one identity collection seen through model.Identity.
type Accounts interface {
	Signup(ctx context.Context, s Signup) (model.Identity, error)
	ByEmail(ctx context.Context, email string) (model.Identity, error)
	ByID(ctx context.Context, id primitive.ObjectID) (model.Identity, error)
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// UserStore is the subset of repository.UserRepo the company portal needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

// StudentAccountStore is the subset of repository.StudentRepo used for auth.
type StudentAccountStore interface {
	Create(ctx context.Context, s *model.Student) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Student, error)
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// GeneralAccountStore is the subset of repository.GeneralUserRepo used for auth.
type GeneralAccountStore interface {
	Create(ctx context.Context, g *model.GeneralUser) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*model.GeneralUser, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.GeneralUser, error)
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// CompanyAccounts serves admins and companies from the users collection.
type CompanyAccounts struct{ Users UserStore }

func userIdentity(u *model.User) model.Identity {
	name := u.Name
	if u.Role == model.RoleCompany && u.CompanyName != "" {
		name = u.CompanyName
	}
	return model.Identity{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.Password,
		Role:          u.Role,
		DisplayName:   name,
		AccountStatus: u.AccountStatus,
	}
}

func (a CompanyAccounts) Signup(ctx context.Context, s Signup) (model.Identity, error) {
	u := &model.User{
		Email:       s.Email,
		Password:    s.PasswordHash,
		Role:        s.Role,
		Name:        s.Name,
		CompanyName: s.CompanyName,
	}
	if _, err := a.Users.Create(ctx, u); err != nil {
		return model.Identity{}, err
	}
	return userIdentity(u), nil
}

func (a CompanyAccounts) ByEmail(ctx context.Context, email string) (model.Identity, error) {
	u, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		return model.Identity{}, err
	}
	return userIdentity(u), nil
}

func (a CompanyAccounts) ByID(ctx context.Context, id primitive.ObjectID) (model.Identity, error) {
	u, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return userIdentity(u), nil
}

// RecordLogin is a no-op; the users collection keeps no login history.
func (CompanyAccounts) RecordLogin(context.Context, primitive.ObjectID, time.Time) error { return nil }

// StudentAccounts serves the student portal.
type StudentAccounts struct{ Students StudentAccountStore }

func studentIdentity(s *model.Student) model.Identity {
	return model.Identity{
		ID:            s.ID,
		Email:         s.Email,
		PasswordHash:  s.Password,
		Role:          model.RoleStudent,
		DisplayName:   joinName(s.FirstName, s.LastName),
		AccountStatus: s.AccountStatus,
	}
}

func (a StudentAccounts) Signup(ctx context.Context, s Signup) (model.Identity, error) {
	st := &model.Student{
		Email:     s.Email,
		Password:  s.PasswordHash,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
	if _, err := a.Students.Create(ctx, st); err != nil {
		return model.Identity{}, err
	}
	return studentIdentity(st), nil
}

func (a StudentAccounts) ByEmail(ctx context.Context, email string) (model.Identity, error) {
	s, err := a.Students.GetByEmail(ctx, email)
	if err != nil {
		return model.Identity{}, err
	}
	return studentIdentity(s), nil
}

func (a StudentAccounts) ByID(ctx context.Context, id primitive.ObjectID) (model.Identity, error) {
	s, err := a.Students.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return studentIdentity(s), nil
}

func (a StudentAccounts) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return a.Students.RecordLogin(ctx, id, at)
}

// GeneralAccounts serves the self-service candidate portal.
type GeneralAccounts struct{ Users GeneralAccountStore }

func generalIdentity(g *model.GeneralUser) model.Identity {
	return model.Identity{
		ID:            g.ID,
		Email:         g.Email,
		PasswordHash:  g.PasswordHash,
		Role:          model.RoleGeneral,
		DisplayName:   joinName(g.FirstName, g.LastName),
		AccountStatus: g.AccountStatus,
	}
}

func (a GeneralAccounts) Signup(ctx context.Context, s Signup) (model.Identity, error) {
	g := &model.GeneralUser{
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
	}
	if _, err := a.Users.Create(ctx, g); err != nil {
		return model.Identity{}, err
	}
	return generalIdentity(g), nil
}

func (a GeneralAccounts) ByEmail(ctx context.Context, email string) (model.Identity, error) {
	g, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		return model.Identity{}, err
	}
	return generalIdentity(g), nil
}

func (a GeneralAccounts) ByID(ctx context.Context, id primitive.ObjectID) (model.Identity, error) {
	g, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return generalIdentity(g), nil
}

func (a GeneralAccounts) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return a.Users.RecordLogin(ctx, id, at)
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
