package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

func newSessionFixture(student *model.Student, general *model.GeneralUser, tpl *model.AdminTemplate) (*SessionService, *memInterviews) {
	store := newMemInterviews()
	admin := &fakeAdminTemplates{
		GetByIDFn: func(_ context.Context, id primitive.ObjectID) (*model.AdminTemplate, error) {
			if id == tpl.ID {
				return tpl, nil
			}
			return nil, repository.ErrNotFound
		},
		ListForRoleFn: func(_ context.Context, role string) ([]model.AdminTemplate, error) {
			if tpl.TargetRole == role && tpl.IsActive {
				return []model.AdminTemplate{*tpl}, nil
			}
			return []model.AdminTemplate{}, nil
		},
	}
	quota := &ledgerAccountant{limit: func(role string, owner primitive.ObjectID) (int, int) {
		switch {
		case role == model.RoleStudent && student != nil && student.ID == owner:
			return student.PracticeUsed, student.PracticeQuota
		case role == model.RoleGeneral && general != nil && general.ID == owner:
			return general.InterviewsUsed, general.InterviewQuota
		}
		return 0, 0
	}}
	return &SessionService{
		Interviews: store,
		Quota:      quota,
		Templates: TemplateCatalog{
			Company: &fakeTemplates{GetByIDFn: func(context.Context, primitive.ObjectID) (*model.Template, error) {
				return nil, repository.ErrNotFound
			}},
			Admin: admin,
		},
		Admin: admin,
		Students: &fakeStudents{GetByIDFn: func(context.Context, primitive.ObjectID) (*model.Student, error) {
			return student, nil
		}},
		GeneralUsers: &fakeGeneralUsers{GetByIDFn: func(context.Context, primitive.ObjectID) (*model.GeneralUser, error) {
			return general, nil
		}},
		BaseURL: "https://hr.example.com/",
		Now:     func() time.Time { return fixedNow },
	}, store
}

func TestStartPracticeCreatesPracticeSession(t *testing.T) {
	st := &model.Student{ID: primitive.NewObjectID(), FirstName: "Sam", LastName: "Lee", Email: "sam@uni.edu", PracticeQuota: 10, PracticeUsed: 2}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), Title: "Behavioural", TargetRole: model.RoleStudent, IsActive: true, Difficulty: "easy"}
	svc, store := newSessionFixture(st, nil, tpl)

	started, err := svc.StartPractice(context.Background(), st.ID, tpl.ID)
	require.NoError(t, err)
	iv := started.Interview
	assert.True(t, iv.IsPractice())
	assert.Equal(t, model.StatusPending, iv.Status)
	assert.Equal(t, st.ID, iv.CompanyID)
	assert.Equal(t, model.QuotaPracticeUsed, iv.Metadata.QuotaType)
	assert.Equal(t, "Sam Lee", iv.CandidateName)
	assert.Equal(t, "https://hr.example.com/interview/"+iv.UniqueLink, started.InterviewURL)
	charge := repository.ChargeFor(iv)
	assert.Equal(t, "students", charge.Collection)
	assert.Equal(t, st.ID, charge.OwnerID)

	list, err := svc.ListPractice(context.Background(), st.ID, "all", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Behavioural", list[0].Title)
	assert.Equal(t, "easy", list[0].Difficulty)
	assert.Equal(t, "general", list[0].Category)
	assert.Equal(t, model.SessionPractice, list[0].Type)

	list, err = svc.ListPractice(context.Background(), st.ID, "completed", 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListPractice(context.Background(), st.ID, "bogus", 0)
	assert.ErrorIs(t, err, model.ErrUnknownStatus)
	assert.Len(t, store.items, 1)
}

func TestStartPracticeLimit(t *testing.T) {
	st := &model.Student{ID: primitive.NewObjectID(), PracticeQuota: 3, PracticeUsed: 3}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), TargetRole: model.RoleStudent, IsActive: true}
	svc, store := newSessionFixture(st, nil, tpl)

	_, err := svc.StartPractice(context.Background(), st.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrPracticeLimit)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, store.items)
}

func TestStartPracticeInactiveTemplate(t *testing.T) {
	st := &model.Student{ID: primitive.NewObjectID(), PracticeQuota: 3}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), TargetRole: model.RoleStudent}
	svc, _ := newSessionFixture(st, nil, tpl)

	_, err := svc.StartPractice(context.Background(), st.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = svc.StartPractice(context.Background(), st.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestStartGeneral(t *testing.T) {
	g := &model.GeneralUser{ID: primitive.NewObjectID(), FirstName: "Gil", InterviewQuota: 3, InterviewsUsed: 1}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), Title: "Sales", TargetRole: model.RoleGeneral, IsActive: true}
	svc, _ := newSessionFixture(nil, g, tpl)
	ctx := context.Background()

	started, err := svc.StartGeneral(ctx, g.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleGeneral, started.Interview.OwnerRole())
	assert.Equal(t, "general_users", repository.ChargeFor(started.Interview).Collection)

	list, err := svc.ListGeneral(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sales", list[0].Title)

	tpls, err := svc.GeneralTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, tpls, 1)

	g.InterviewsUsed = 3
	_, err = svc.StartGeneral(ctx, g.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestStartPracticeNeverExceedsQuota(t *testing.T) {
	st := &model.Student{ID: primitive.NewObjectID(), PracticeQuota: 1}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), TargetRole: model.RoleStudent, IsActive: true}
	svc, store := newSessionFixture(st, nil, tpl)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartPractice(context.Background(), st.ID, tpl.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrPracticeLimit)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, store.items, 1)
	assert.Equal(t, 1, svc.Quota.(*ledgerAccountant).holding(st.ID))
	for _, iv := range store.items {
		assert.True(t, iv.QuotaReserved)
	}
}

func TestStartGeneralCountsOpenSessions(t *testing.T) {
	g := &model.GeneralUser{ID: primitive.NewObjectID(), InterviewQuota: 3, InterviewsUsed: 1}
	tpl := &model.AdminTemplate{ID: primitive.NewObjectID(), TargetRole: model.RoleGeneral, IsActive: true}
	svc, store := newSessionFixture(nil, g, tpl)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.StartGeneral(ctx, g.ID, tpl.ID)
		require.NoError(t, err)
	}
	_, err := svc.StartGeneral(ctx, g.ID, tpl.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, store.items, 2)
}
