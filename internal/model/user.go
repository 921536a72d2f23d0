package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names carried in the JWT "role" claim.  Admins and companies live in
// the users collection, students and general users have their own
// collections.
const (
	RoleAdmin   = "admin"
	RoleCompany = "company"
	RoleStudent = "student"
	RoleGeneral = "general"
)

// Account status values shared by every identity collection.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
	AccountPending   = "pending"
)

// Default quotas applied at signup.
const (
	DefaultCompanyQuota  = 10
	DefaultPracticeQuota = 10
	DefaultGeneralQuota  = 3
)

// User represents an admin or company account stored in the `users`
// collection.  Companies carry an interview quota which is decremented as
// interviews complete, paired with a usage counter.
//
// Fields:
//
//	ID             – document identifier.
//	Email          – unique, lower-cased email address.
//	Password       – bcrypt hash (never serialised to clients).
//	Role           – admin or company.
//	Name           – display name of the account holder.
//	CompanyName    – company display name (companies only).
//	InterviewQuota – remaining interview allowance.
//	InterviewsUsed – number of interviews consumed.
//	ReservedSessions – units held by interviews that have not finished yet.
//	AccountStatus  – active, suspended or pending.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email            string             `bson:"email" json:"email"`
	Password         string             `bson:"password" json:"-"`
	Role             string             `bson:"role" json:"role"`
	Name             string             `bson:"name" json:"name"`
	CompanyName      string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	InterviewQuota   int                `bson:"interviewQuota" json:"interviewQuota"`
	InterviewsUsed   int                `bson:"interviewsUsed" json:"interviewsUsed"`
	ReservedSessions int                `bson:"reservedSessions" json:"reservedSessions"`
	SubscriptionTier string             `bson:"subscriptionTier,omitempty" json:"subscriptionTier,omitempty"`
	AccountStatus    string             `bson:"accountStatus,omitempty" json:"accountStatus,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Student is a record in the `students` collection.  Practice sessions are
// limited by PracticeQuota and counted in PracticeUsed; the counter is reset
// monthly once QuotaResetDate has passed.  Open sessions hold a unit in
// ReservedSessions until they finish.
type Student struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email            string             `bson:"email" json:"email"`
	Password         string             `bson:"password" json:"-"`
	FirstName        string             `bson:"firstName" json:"firstName"`
	LastName         string             `bson:"lastName" json:"lastName"`
	University       string             `bson:"university,omitempty" json:"university,omitempty"`
	Major            string             `bson:"major,omitempty" json:"major,omitempty"`
	GraduationYear   int                `bson:"graduationYear,omitempty" json:"graduationYear,omitempty"`
	TargetRole       string             `bson:"targetRole,omitempty" json:"targetRole,omitempty"`
	IsEmailVerified  bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	LoginCount       int                `bson:"loginCount" json:"loginCount"`
	LastLoginAt      *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	AccountStatus    string             `bson:"accountStatus" json:"accountStatus"`
	PracticeQuota    int                `bson:"practiceQuota" json:"practiceQuota"`
	PracticeUsed     int                `bson:"practiceUsed" json:"practiceUsed"`
	ReservedSessions int                `bson:"reservedSessions" json:"reservedSessions"`
	QuotaResetDate   time.Time          `bson:"quotaResetDate" json:"quotaResetDate"`
	SubscriptionTier string             `bson:"subscriptionTier" json:"subscriptionTier"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GeneralUser is a self-service candidate account (`general_users`).
type GeneralUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"passwordHash" json:"-"`
	FirstName        string             `bson:"firstName" json:"firstName"`
	LastName         string             `bson:"lastName" json:"lastName"`
	SubscriptionTier string             `bson:"subscriptionTier" json:"subscriptionTier"`
	InterviewQuota   int                `bson:"interviewQuota" json:"interviewQuota"`
	InterviewsUsed   int                `bson:"interviewsUsed" json:"interviewsUsed"`
	ReservedSessions int                `bson:"reservedSessions" json:"reservedSessions"`
	QuotaResetDate   time.Time          `bson:"quotaResetDate" json:"quotaResetDate"`
	AccountStatus    string             `bson:"accountStatus" json:"accountStatus"`
	LastLoginAt      *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` collection.  Only
// the SHA‑256 hash of the token is stored.  Role tells the refresh endpoint
// which identity collection UserID points into.
type RefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Role      string             `bson:"role"`
	TokenHash string             `bson:"tokenHash"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	RevokedAt *time.Time         `bson:"revokedAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Identity is the role-neutral view of an account used by the auth
// handlers, whichever collection it came from.
type Identity struct {
	ID            primitive.ObjectID
	Email         string
	PasswordHash  string
	Role          string
	DisplayName   string
	AccountStatus string
}
