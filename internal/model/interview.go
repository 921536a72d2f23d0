package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session types stored in Interview.Metadata.SessionType.
const (
	SessionPractice  = "practice"
	SessionInterview = "interview"
	SessionDemo      = "demo"
)

// Quota fields named by Interview.Metadata.QuotaType.
const (
	QuotaPracticeUsed   = "practiceUsed"
	QuotaInterviewsUsed = "interviewsUsed"
)

// QuotaReleased is the ledger field of an interview that ended without
// completing and gave its reserved unit back.
const QuotaReleased = "released"

// Recording types accepted by the media upload endpoint.
const (
	RecordingUserOnly = "user-only"
	RecordingComplete = "complete"
)

// CandidateResponse is the answer given to one template question.
type CandidateResponse struct {
	QuestionID string    `bson:"questionId" json:"questionId"`
	Response   string    `bson:"response" json:"response"`
	VideoURL   string    `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	AudioURL   string    `bson:"audioUrl,omitempty" json:"audioUrl,omitempty"`
	Duration   float64   `bson:"duration" json:"duration"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// TranscriptTurn is a single utterance returned by the voice agent.
type TranscriptTurn struct {
	Role           string  `bson:"role" json:"role"`
	Message        string  `bson:"message" json:"message"`
	TimeInCallSecs float64 `bson:"timeInCallSecs" json:"time_in_call_secs"`
}

// SessionMetadata identifies what kind of session an interview is and which
// quota counter its completion is charged to.
type SessionMetadata struct {
	SessionType string `bson:"sessionType" json:"sessionType"`
	UserRole    string `bson:"userRole" json:"userRole"`
	UserID      string `bson:"userId" json:"userId"`
	QuotaType   string `bson:"quotaType" json:"quotaType"`
}

// Interview is one scheduled interview or practice session in the
// `interviews` collection.
//
// Fields:
//
//	CompanyID   – owner: a company, a student (practice) or a general user.
//	UniqueLink  – unguessable token used for unauthenticated candidate access.
//	Status      – lifecycle state, see Status.
//	Video*/Audio* – local backup path and object storage URL of each recording.
//	Metadata    – session type and quota field used at completion.
//	QuotaReserved – a quota unit was held when the interview was created;
//	              it is settled once the interview reaches a terminal state.
type Interview struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	CompanyID         primitive.ObjectID  `bson:"companyId" json:"companyId"`
	TemplateID        primitive.ObjectID  `bson:"templateId" json:"templateId"`
	CandidateName     string              `bson:"candidateName" json:"candidateName"`
	CandidateEmail    string              `bson:"candidateEmail" json:"candidateEmail"`
	UniqueLink        string              `bson:"uniqueLink" json:"uniqueLink"`
	Status            Status              `bson:"status" json:"status"`
	Responses         []CandidateResponse `bson:"responses" json:"responses"`
	Score             *float64            `bson:"score,omitempty" json:"score,omitempty"`
	Feedback          string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	ConversationID    string              `bson:"conversationId,omitempty" json:"conversationId,omitempty"`
	Audio             string              `bson:"audio,omitempty" json:"audio,omitempty"`
	AudioS3           string              `bson:"audioS3,omitempty" json:"audioS3,omitempty"`
	Video             string              `bson:"video,omitempty" json:"video,omitempty"`
	VideoS3           string              `bson:"videoS3,omitempty" json:"videoS3,omitempty"`
	VideoComplete     string              `bson:"videoComplete,omitempty" json:"videoComplete,omitempty"`
	VideoCompleteS3   string              `bson:"videoCompleteS3,omitempty" json:"videoCompleteS3,omitempty"`
	Transcript        []TranscriptTurn    `bson:"transcript,omitempty" json:"transcript,omitempty"`
	Analysis          map[string]any      `bson:"analysis,omitempty" json:"analysis,omitempty"`
	FinalScore        map[string]any      `bson:"finalScore,omitempty" json:"finalScore,omitempty"`
	StartedAt         *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt       *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
	Metadata          *SessionMetadata    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IsStudentPractice bool                `bson:"isStudentPractice,omitempty" json:"-"`
	QuotaReserved     bool                `bson:"quotaReserved,omitempty" json:"-"`
}

// IsPractice reports whether completion is charged to a student's practice
// counter.  Older records only carry the isStudentPractice flag.
func (i *Interview) IsPractice() bool {
	if i.IsStudentPractice {
		return true
	}
	return i.Metadata != nil && i.Metadata.SessionType == SessionPractice
}

// OwnerRole returns the role recorded in the session metadata, defaulting to
// company for records created before metadata existed.
func (i *Interview) OwnerRole() string {
	if i.IsPractice() {
		return RoleStudent
	}
	if i.Metadata != nil && i.Metadata.UserRole != "" {
		return i.Metadata.UserRole
	}
	return RoleCompany
}

// QuotaEntry is the ledger row written once per accounted completion
// (`quota_ledger`, unique on interviewId).
type QuotaEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	InterviewID primitive.ObjectID `bson:"interviewId"`
	OwnerID     primitive.ObjectID `bson:"ownerId"`
	Field       string             `bson:"field"`
	SessionType string             `bson:"sessionType"`
	CreatedAt   time.Time          `bson:"createdAt"`
}
