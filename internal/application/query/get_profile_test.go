package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

type fakeRepo struct {
	profile *transcript.Profile
	loads   int
}

func (r *fakeRepo) Save(_ context.Context, _ *transcript.Profile) error { return nil }

func (r *fakeRepo) GetByRegistration(_ context.Context, registration string) (*transcript.Profile, error) {
	r.loads++
	if r.profile == nil || r.profile.Registration != registration {
		return nil, transcript.ErrProfileNotFound
	}
	return r.profile.Clone(), nil
}

func (r *fakeRepo) GetByID(_ context.Context, _ string) (*transcript.Profile, error) {
	return nil, transcript.ErrProfileNotFound
}

func (r *fakeRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeCache struct {
	stored *transcript.Profile
	sets   int
}

func (c *fakeCache) Get(_ context.Context, registration string) (*transcript.Profile, error) {
	if c.stored == nil || c.stored.Registration != registration {
		return nil, transcript.ErrProfileNotFound
	}
	return c.stored.Clone(), nil
}

func (c *fakeCache) Set(_ context.Context, p *transcript.Profile, _ time.Duration) error {
	c.sets++
	c.stored = p.Clone()
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, _ string) error {
	c.stored = nil
	return nil
}

func dualTrackProfile(t *testing.T) *transcript.Profile {
	t.Helper()

	p, err := transcript.NewProfile("id-1", "Sana Khalid", "2021-ag-9999")
	assert.NoError(t, err)

	p.ReplaceSemesters(transcript.BuildSemesters([]transcript.RawRecord{
		{Semester: "Winter Semester 2021-2022", Code: "CS-101", CreditHours: 3, Marks: 48, Source: transcript.SourceLMS},
		{Semester: "Winter Semester 2021-2022", Code: "EDU-501", CreditHours: 3, Marks: 44, Source: transcript.SourceLMS},
		{Semester: "Spring Semester 2021-2022", Code: "MA-101", CreditHours: 3, Marks: 36, Source: transcript.SourceLMS},
	}))
	p.TrackMode = true
	return p
}

func newHandler(repo *fakeRepo, cache *fakeCache) *GetProfileHandler {
	return NewGetProfileHandler(repo, cache,
		transcript.NewTrackRegistry(transcript.DefaultBEdCodes()), 10*time.Minute, nil)
}

func TestGetProfile_FullRecord(t *testing.T) {
	repo := &fakeRepo{profile: dualTrackProfile(t)}
	cache := &fakeCache{}

	view, err := newHandler(repo, cache).Handle(context.Background(), GetProfileQuery{
		Registration: "2021-ag-9999",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Sana Khalid", view.StudentName)
	assert.True(t, view.TrackMode)
	assert.Len(t, view.Semesters, 2)

	// Chronological order: Winter 2021 before Spring 2022.
	assert.Equal(t, "Winter 2021", view.Semesters[0].Name)
	assert.Equal(t, "Spring 2022", view.Semesters[1].Name)
	assert.Equal(t, 9, view.Overall.CreditHours)
}

func TestGetProfile_CacheAside(t *testing.T) {
	repo := &fakeRepo{profile: dualTrackProfile(t)}
	cache := &fakeCache{}
	h := newHandler(repo, cache)

	_, err := h.Handle(context.Background(), GetProfileQuery{Registration: "2021-ag-9999"})
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache.
	_, err = h.Handle(context.Background(), GetProfileQuery{Registration: "2021-ag-9999"})
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
}

func TestGetProfile_MainTrackView(t *testing.T) {
	repo := &fakeRepo{profile: dualTrackProfile(t)}

	view, err := newHandler(repo, &fakeCache{}).Handle(context.Background(), GetProfileQuery{
		Registration: "2021-ag-9999",
		Track:        TrackMain,
	})

	assert.NoError(t, err)
	assert.Equal(t, 6, view.Overall.CreditHours)
	for _, sem := range view.Semesters {
		for _, c := range sem.Courses {
			assert.NotEqual(t, "EDU-501", c.Code)
		}
	}
}

func TestGetProfile_SecondaryTrackView(t *testing.T) {
	repo := &fakeRepo{profile: dualTrackProfile(t)}

	view, err := newHandler(repo, &fakeCache{}).Handle(context.Background(), GetProfileQuery{
		Registration: "2021-ag-9999",
		Track:        TrackSecondary,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, view.Overall.CreditHours)
	assert.Len(t, view.Semesters, 1)
	assert.Equal(t, "EDU-501", view.Semesters[0].Courses[0].Code)
}

func TestGetProfile_TrackViewDoesNotMutateRecord(t *testing.T) {
	repo := &fakeRepo{profile: dualTrackProfile(t)}
	cache := &fakeCache{}
	h := newHandler(repo, cache)

	_, err := h.Handle(context.Background(), GetProfileQuery{
		Registration: "2021-ag-9999",
		Track:        TrackSecondary,
	})
	assert.NoError(t, err)

	full, err := h.Handle(context.Background(), GetProfileQuery{Registration: "2021-ag-9999"})
	assert.NoError(t, err)
	assert.Equal(t, 9, full.Overall.CreditHours)
}

func TestGetProfile_NotFound(t *testing.T) {
	_, err := newHandler(&fakeRepo{}, &fakeCache{}).Handle(context.Background(), GetProfileQuery{
		Registration: "1999-ag-0000",
	})
	assert.ErrorIs(t, err, transcript.ErrProfileNotFound)
}

func TestGetProfile_Validation(t *testing.T) {
	h := newHandler(&fakeRepo{}, &fakeCache{})

	_, err := h.Handle(context.Background(), GetProfileQuery{Registration: ""})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = h.Handle(context.Background(), GetProfileQuery{Registration: "x", Track: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
