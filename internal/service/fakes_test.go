package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/analysis"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/queue"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

// memInterviews is an in-memory InterviewStore with the same conditional
// update semantics as the Mongo repository.
type memInterviews struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*model.Interview
}

func newMemInterviews(ivs ...*model.Interview) *memInterviews {
	m := &memInterviews{items: map[primitive.ObjectID]*model.Interview{}}
	for _, iv := range ivs {
		m.items[iv.ID] = iv
	}
	return m
}

func (m *memInterviews) Insert(_ context.Context, iv *model.Interview) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if iv.ID.IsZero() {
		iv.ID = primitive.NewObjectID()
	}
	cp := *iv
	m.items[iv.ID] = &cp
	return iv.ID, nil
}

func (m *memInterviews) match(filter bson.M) *model.Interview {
	for _, iv := range m.items {
		if id, ok := filter["_id"]; ok && iv.ID == id {
			return iv
		}
		if link, ok := filter["uniqueLink"]; ok && iv.UniqueLink == link {
			return iv
		}
	}
	return nil
}

func (m *memInterviews) FindOne(_ context.Context, filter bson.M) (*model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv := m.match(filter)
	if iv == nil {
		return nil, repository.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (m *memInterviews) ApplyPatch(_ context.Context, filter bson.M, p *model.Patch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv := m.match(filter)
	if iv == nil {
		return false, nil
	}
	return true, applySet(iv, p)
}

func (m *memInterviews) TransitionStatus(_ context.Context, id primitive.ObjectID, from model.Status, p *model.Patch) (*model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.items[id]
	if !ok || iv.Status != from {
		return nil, repository.ErrConflict
	}
	if err := applySet(iv, p); err != nil {
		return nil, err
	}
	cp := *iv
	return &cp, nil
}

func (m *memInterviews) List(_ context.Context, f repository.ListFilter) ([]model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Interview{}
	for _, iv := range m.items {
		if f.OwnerID != nil && iv.CompanyID != *f.OwnerID {
			continue
		}
		if f.Practice != nil && iv.IsPractice() != *f.Practice {
			continue
		}
		if f.Status != "" && iv.Status != f.Status {
			continue
		}
		out = append(out, *iv)
	}
	// newest first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memInterviews) ListStale(_ context.Context, status model.Status, cutoff time.Time) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []primitive.ObjectID
	for _, iv := range m.items {
		if iv.Status == status && iv.CreatedAt.Before(cutoff) {
			ids = append(ids, iv.ID)
		}
	}
	return ids, nil
}

func (m *memInterviews) get(id primitive.ObjectID) model.Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

// applySet round-trips iv through bson so patch keys land on the same
// fields the database would write.
func applySet(iv *model.Interview, p *model.Patch) error {
	raw, err := bson.Marshal(iv)
	if err != nil {
		return err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range p.Update()["$set"].(bson.M) {
		doc[k] = v
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return err
	}
	var out model.Interview
	if err := bson.Unmarshal(raw, &out); err != nil {
		return err
	}
	*iv = out
	return nil
}

type fakeTemplates struct {
	GetByIDFn func(ctx context.Context, id primitive.ObjectID) (*model.Template, error)
}

func (f *fakeTemplates) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	return f.GetByIDFn(ctx, id)
}

type fakeAdminTemplates struct {
	GetByIDFn     func(ctx context.Context, id primitive.ObjectID) (*model.AdminTemplate, error)
	ListForRoleFn func(ctx context.Context, role string) ([]model.AdminTemplate, error)
}

func (f *fakeAdminTemplates) GetByID(ctx context.Context, id primitive.ObjectID) (*model.AdminTemplate, error) {
	if f.GetByIDFn == nil {
		return nil, repository.ErrNotFound
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeAdminTemplates) ListForRole(ctx context.Context, role string) ([]model.AdminTemplate, error) {
	return f.ListForRoleFn(ctx, role)
}

type fakeCompanies struct {
	GetByIDFn func(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

func (f *fakeCompanies) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return f.GetByIDFn(ctx, id)
}

type fakeStudents struct {
	GetByIDFn       func(ctx context.Context, id primitive.ObjectID) (*model.Student, error)
	UpdateProfileFn func(ctx context.Context, id primitive.ObjectID, p *model.Patch) error
}

func (f *fakeStudents) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Student, error) {
	return f.GetByIDFn(ctx, id)
}

func (f *fakeStudents) UpdateProfile(ctx context.Context, id primitive.ObjectID, p *model.Patch) error {
	return f.UpdateProfileFn(ctx, id, p)
}

type fakeGeneralUsers struct {
	GetByIDFn func(ctx context.Context, id primitive.ObjectID) (*model.GeneralUser, error)
}

func (f *fakeGeneralUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*model.GeneralUser, error) {
	return f.GetByIDFn(ctx, id)
}

// ledgerAccountant mimics the unique ledger: the second Account or Release
// call for the same interview reports ErrAlreadyAccounted. Reserve holds a
// unit against the counters returned by limit, like the conditional $inc.
type ledgerAccountant struct {
	mu       sync.Mutex
	seen     map[primitive.ObjectID]bool
	held     map[primitive.ObjectID]int
	charged  int
	released int
	err      error
	limit    func(role string, owner primitive.ObjectID) (used, quota int)
}

func (a *ledgerAccountant) Reserve(_ context.Context, role string, owner primitive.ObjectID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil {
		a.held = map[primitive.ObjectID]int{}
	}
	if a.limit != nil {
		used, quota := a.limit(role, owner)
		if used+a.held[owner] >= quota {
			return repository.ErrQuotaExhausted
		}
	}
	a.held[owner]++
	return nil
}

func (a *ledgerAccountant) Unreserve(_ context.Context, _ string, owner primitive.ObjectID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held[owner] > 0 {
		a.held[owner]--
	}
	return nil
}

func (a *ledgerAccountant) holding(owner primitive.ObjectID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held[owner]
}

func (a *ledgerAccountant) mark(id primitive.ObjectID) bool {
	if a.seen == nil {
		a.seen = map[primitive.ObjectID]bool{}
	}
	if a.seen[id] {
		return false
	}
	a.seen[id] = true
	return true
}

func (a *ledgerAccountant) Account(_ context.Context, iv *model.Interview) (repository.Charge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := repository.ChargeFor(iv)
	if a.err != nil {
		return c, a.err
	}
	if !a.mark(iv.ID) {
		return c, repository.ErrAlreadyAccounted
	}
	a.charged++
	if iv.QuotaReserved && a.held[c.OwnerID] > 0 {
		a.held[c.OwnerID]--
	}
	return c, nil
}

func (a *ledgerAccountant) Release(_ context.Context, iv *model.Interview) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !iv.QuotaReserved {
		return nil
	}
	if !a.mark(iv.ID) {
		return repository.ErrAlreadyAccounted
	}
	a.released++
	owner := repository.ChargeFor(iv).OwnerID
	if a.held[owner] > 0 {
		a.held[owner]--
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.InterviewCompletedEvent
	err    error
}

func (p *recordingPublisher) PublishInterviewCompleted(_ context.Context, ev queue.InterviewCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fakeVoice struct {
	SignedURLFn  func(ctx context.Context, agentID string) (string, error)
	AudioFn      func(ctx context.Context, id string) ([]byte, error)
	TranscriptFn func(ctx context.Context, id string) ([]model.TranscriptTurn, error)
	deleted      []string
}

func (f *fakeVoice) SignedURL(ctx context.Context, agentID string) (string, error) {
	return f.SignedURLFn(ctx, agentID)
}

func (f *fakeVoice) Audio(ctx context.Context, id string) ([]byte, error) { return f.AudioFn(ctx, id) }

func (f *fakeVoice) Transcript(ctx context.Context, id string) ([]model.TranscriptTurn, error) {
	return f.TranscriptFn(ctx, id)
}

func (f *fakeVoice) DeleteConversation(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAnalyzer struct {
	AnalyzeFn func(ctx context.Context, turns []model.TranscriptTurn) (*analysis.Result, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, turns []model.TranscriptTurn) (*analysis.Result, error) {
	return f.AnalyzeFn(ctx, turns)
}

type fakeObjectStore struct {
	pingErr error
	putErr  error
	keys    []string
}

func (f *fakeObjectStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeObjectStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.keys = append(f.keys, key)
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key, nil
}

type fakeReports struct {
	agents    []repository.AgentRow
	rows      []repository.InterviewRow
	groups    []repository.StatusGroup
	agentsCnt int64
}

func (f *fakeReports) Agents(context.Context) ([]repository.AgentRow, error) { return f.agents, nil }

func (f *fakeReports) Interviews(context.Context, int64) ([]repository.InterviewRow, error) {
	return f.rows, nil
}

func (f *fakeReports) StatusGroups(context.Context) ([]repository.StatusGroup, error) {
	return f.groups, nil
}

func (f *fakeReports) CountAgents(context.Context) (int64, error) { return f.agentsCnt, nil }

type countCompanies int64

func (c countCompanies) CountCompanies(context.Context) (int64, error) { return int64(c), nil }
