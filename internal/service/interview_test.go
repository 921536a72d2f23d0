package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/analysis"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/storage"
)

var fixedNow = time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memInterviews
	acct      *ledgerAccountant
	events    *recordingPublisher
	svc       *InterviewService
	template  *model.Template
	company   *model.User
	interview *model.Interview
}

func newFixture(t *testing.T, status model.Status) *fixture {
	t.Helper()
	company := &model.User{ID: primitive.NewObjectID(), Role: model.RoleCompany, CompanyName: "Acme", InterviewQuota: 10}
	tpl := &model.Template{ID: primitive.NewObjectID(), Title: "Backend", IsActive: true, AgentID: "agent-1"}
	iv := &model.Interview{
		ID:         primitive.NewObjectID(),
		CompanyID:  company.ID,
		TemplateID: tpl.ID,
		UniqueLink: "interview-1714642200000-abc123",
		Status:     status,
		CreatedAt:  fixedNow.Add(-time.Hour),
		Metadata:   &model.SessionMetadata{SessionType: model.SessionInterview, UserRole: model.RoleCompany},
	}
	store := newMemInterviews(iv)
	acct := &ledgerAccountant{limit: func(_ string, owner primitive.ObjectID) (int, int) {
		if owner != company.ID {
			return 0, 0
		}
		return company.InterviewsUsed, company.InterviewQuota
	}}
	f := &fixture{
		store:     store,
		acct:      acct,
		events:    &recordingPublisher{},
		template:  tpl,
		company:   company,
		interview: iv,
	}
	f.svc = &InterviewService{
		Interviews: store,
		Resolver:   repository.NewInterviewResolver(store),
		Templates: TemplateCatalog{Company: &fakeTemplates{GetByIDFn: func(_ context.Context, id primitive.ObjectID) (*model.Template, error) {
			if id == tpl.ID {
				return tpl, nil
			}
			return nil, repository.ErrNotFound
		}}},
		Companies: &fakeCompanies{GetByIDFn: func(_ context.Context, id primitive.ObjectID) (*model.User, error) {
			if id == company.ID {
				return company, nil
			}
			return nil, repository.ErrNotFound
		}},
		Accountant: f.acct,
		Events:     f.events,
		BaseURL:    "https://hr.example.com",
		Now:        func() time.Time { return fixedNow },
	}
	return f
}

func strPtr(s string) *string { return &s }

func TestUpdateCompletionAccountsOnce(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	ctx := context.Background()

	iv, err := f.svc.Update(ctx, f.interview.UniqueLink, UpdateInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, iv.Status)
	require.NotNil(t, iv.CompletedAt)
	assert.Equal(t, 1, f.acct.charged)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.QuotaInterviewsUsed, f.events.events[0].QuotaField)

	_, err = f.svc.Update(ctx, f.interview.ID.Hex(), UpdateInput{Status: strPtr("completed")})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, 1, f.acct.charged)
	assert.Len(t, f.events.events, 1)
}

func TestConcurrentCompletionsChargeOnce(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("completed")})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, repository.ErrConflict) || errors.Is(err, model.ErrInvalidTransition), err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.acct.charged)
}

func TestUpdateAlreadyAccountedSkipsEvent(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.acct.seen = map[primitive.ObjectID]bool{f.interview.ID: true}

	_, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Empty(t, f.events.events)
}

func TestUpdateAccountingFailure(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.acct.err = errors.New("write conflict")

	_, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("completed")})
	assert.ErrorIs(t, err, ErrAccounting)
	assert.Equal(t, model.StatusCompleted, f.store.get(f.interview.ID).Status)
}

func TestUpdatePublishFailureIsTolerated(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.events.err = errors.New("broker down")

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, iv.Status)
}

func TestUpdateRejectsRegressionAndUnknownStatus(t *testing.T) {
	f := newFixture(t, model.StatusExpired)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.interview.UniqueLink, UpdateInput{Status: strPtr("in-progress")})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.Update(ctx, f.interview.UniqueLink, UpdateInput{Status: strPtr("finished")})
	assert.ErrorIs(t, err, model.ErrUnknownStatus)
	assert.Equal(t, model.StatusExpired, f.store.get(f.interview.ID).Status)
}

func TestUpdateResponsesOnlyKeepsStatus(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	score := 72.5

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{
		Responses: []model.CandidateResponse{{QuestionID: "q1", Response: "hello"}},
		Score:     &score,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, iv.Status)
	require.Len(t, iv.Responses, 1)
	require.NotNil(t, iv.Score)
	assert.Equal(t, 72.5, *iv.Score)
	assert.Zero(t, f.acct.charged)
}

func TestUpdateStartStampsStartedAt(t *testing.T) {
	f := newFixture(t, model.StatusPending)

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("in-progress")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, iv.Status)
	assert.NotNil(t, iv.StartedAt)
	assert.Nil(t, iv.CompletedAt)
}

func TestUpdateUnknownToken(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	_, err := f.svc.Update(context.Background(), "nope", UpdateInput{Status: strPtr("completed")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.Update(context.Background(), primitive.NewObjectID().Hex(), UpdateInput{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// conversationDeps wires a voice provider that serves audio and a
// transcript, local media storage and a canned analyzer.
func conversationDeps(t *testing.T, f *fixture) *fakeVoice {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	voice := &fakeVoice{
		AudioFn: func(context.Context, string) ([]byte, error) { return []byte("mp3"), nil },
		TranscriptFn: func(context.Context, string) ([]model.TranscriptTurn, error) {
			return []model.TranscriptTurn{{Role: "agent", Message: "Hi"}, {Role: "user", Message: "Hello there"}}, nil
		},
	}
	f.svc.Voice = voice
	f.svc.Media = &MediaService{Local: local, Remote: storage.Disabled{}}
	f.svc.Analyzer = &fakeAnalyzer{AnalyzeFn: func(context.Context, []model.TranscriptTurn) (*analysis.Result, error) {
		return &analysis.Result{Analysis: map[string]any{"feedback": "ok"}, FinalScore: map[string]any{"overall": 70}, Score: 70}, nil
	}}
	return voice
}

// racingInterviews moves the stored record on right after the first read,
// the way a concurrent request would between resolve and write.
type racingInterviews struct {
	*memInterviews
	once  sync.Once
	after func()
}

func (r *racingInterviews) FindOne(ctx context.Context, filter bson.M) (*model.Interview, error) {
	iv, err := r.memInterviews.FindOne(ctx, filter)
	r.once.Do(r.after)
	return iv, err
}

func completeBehind(f *fixture) {
	race := &racingInterviews{memInterviews: f.store, after: func() {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		f.store.items[f.interview.ID].Status = model.StatusCompleted
	}}
	f.svc.Interviews = race
	f.svc.Resolver = repository.NewInterviewResolver(race)
}

func TestUpdateWithConversationStoresArtefacts(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	voice := conversationDeps(t, f)

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{
		Status: strPtr("completed"), ConversationID: "conv_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "conv_1", iv.ConversationID)
	assert.Contains(t, iv.Audio, "conv_1.mp3")
	assert.Empty(t, iv.AudioS3)
	assert.Len(t, iv.Transcript, 2)
	assert.Equal(t, "ok", iv.Analysis["feedback"])
	assert.Equal(t, []string{"conv_1"}, voice.deleted)
}

func TestUpdateSameStatusKeepsStatus(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{
		Status:    strPtr("in-progress"),
		Responses: []model.CandidateResponse{{QuestionID: "q1", Response: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, iv.Status)
	assert.Len(t, iv.Responses, 1)
	assert.Zero(t, f.acct.charged)
}

func TestSameStatusUpdateCannotReopenCompleted(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	completeBehind(f)

	_, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{
		Status:    strPtr("in-progress"),
		Responses: []model.CandidateResponse{{QuestionID: "q1", Response: "late"}},
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	stored := f.store.get(f.interview.ID)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Empty(t, stored.Responses)
}

func TestConversationKeptWhenTransitionLoses(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	voice := conversationDeps(t, f)
	completeBehind(f)

	_, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{
		Status: strPtr("completed"), ConversationID: "conv_2",
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, voice.deleted)
	assert.Empty(t, f.store.get(f.interview.ID).ConversationID)
}

func TestCreateNeverExceedsQuota(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.company.InterviewQuota = 2

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.Create(context.Background(), f.company.ID, CreateInput{TemplateID: f.template.ID})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, f.acct.holding(f.company.ID))
	assert.Len(t, f.store.items, 3)
}

func TestReservationSettledOnceOnCompletion(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	ctx := context.Background()

	iv, _, err := f.svc.Create(ctx, f.company.ID, CreateInput{TemplateID: f.template.ID})
	require.NoError(t, err)
	require.True(t, iv.QuotaReserved)
	assert.Equal(t, 1, f.acct.holding(f.company.ID))

	_, err = f.svc.Update(ctx, iv.UniqueLink, UpdateInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, 1, f.acct.charged)
	assert.Zero(t, f.acct.holding(f.company.ID))
	assert.Zero(t, f.acct.released)
}

func TestAbandonReleasesReservation(t *testing.T) {
	f := newFixture(t, model.StatusInProgress)
	f.interview.QuotaReserved = true
	f.acct.held = map[primitive.ObjectID]int{f.company.ID: 1}

	iv, err := f.svc.Update(context.Background(), f.interview.UniqueLink, UpdateInput{Status: strPtr("abandoned")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAbandoned, iv.Status)
	assert.Equal(t, 1, f.acct.released)
	assert.Zero(t, f.acct.charged)
	assert.Zero(t, f.acct.holding(f.company.ID))
}

func TestCreateChecksTemplateAndQuota(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	ctx := context.Background()

	iv, url, err := f.svc.Create(ctx, f.company.ID, CreateInput{
		TemplateID: f.template.ID, CandidateName: " Ada ", CandidateEmail: "ADA@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, iv.Status)
	assert.Equal(t, "Ada", iv.CandidateName)
	assert.Equal(t, "ada@example.com", iv.CandidateEmail)
	assert.Equal(t, "https://hr.example.com/interview/"+iv.UniqueLink, url)
	assert.Zero(t, f.acct.charged)
	assert.True(t, iv.QuotaReserved)
	assert.Equal(t, 1, f.acct.holding(f.company.ID))

	_, _, err = f.svc.Create(ctx, f.company.ID, CreateInput{TemplateID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	f.company.InterviewsUsed = 10
	_, _, err = f.svc.Create(ctx, f.company.ID, CreateInput{TemplateID: f.template.ID})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestGetView(t *testing.T) {
	f := newFixture(t, model.StatusPending)

	v, err := f.svc.Get(context.Background(), f.interview.UniqueLink)
	require.NoError(t, err)
	assert.Equal(t, "Acme", v.CompanyName)
	assert.Equal(t, "Backend", v.Template.Title)

	f.company.CompanyName = ""
	f.company.Name = ""
	v, err = f.svc.Get(context.Background(), f.interview.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Company", v.CompanyName)
}

func TestGetCompletedRefused(t *testing.T) {
	f := newFixture(t, model.StatusCompleted)
	_, err := f.svc.Get(context.Background(), f.interview.UniqueLink)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestSignedURL(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.svc.Voice = &fakeVoice{SignedURLFn: func(_ context.Context, agentID string) (string, error) {
		return "wss://agent/" + agentID, nil
	}}

	u, err := f.svc.SignedURL(context.Background(), f.interview.UniqueLink)
	require.NoError(t, err)
	assert.Equal(t, "wss://agent/agent-1", u)

	f.template.AgentID = ""
	_, err = f.svc.SignedURL(context.Background(), f.interview.UniqueLink)
	assert.ErrorIs(t, err, ErrNoAgent)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	fresh := &model.Interview{ID: primitive.NewObjectID(), Status: model.StatusPending, CreatedAt: fixedNow}
	_, _ = f.store.Insert(context.Background(), fresh)

	n, err := f.svc.ExpireStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.StatusExpired, f.store.get(f.interview.ID).Status)
	assert.Equal(t, model.StatusPending, f.store.get(fresh.ID).Status)
}

func TestExpireStaleReleasesReservation(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	f.interview.QuotaReserved = true
	f.acct.held = map[primitive.ObjectID]int{f.company.ID: 1}

	n, err := f.svc.ExpireStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.acct.released)
	assert.Zero(t, f.acct.holding(f.company.ID))

	n, err = f.svc.ExpireStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.acct.released)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t, model.StatusPending)
	other := &model.Interview{ID: primitive.NewObjectID(), CompanyID: primitive.NewObjectID(), CreatedAt: fixedNow}
	practice := &model.Interview{ID: primitive.NewObjectID(), CompanyID: f.company.ID, IsStudentPractice: true, CreatedAt: fixedNow}
	_, _ = f.store.Insert(context.Background(), other)
	_, _ = f.store.Insert(context.Background(), practice)

	all, err := f.svc.List(context.Background(), model.RoleAdmin, primitive.NilObjectID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.List(context.Background(), model.RoleCompany, f.company.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.interview.ID, own[0].ID)
}
