package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

type mockRepo struct{ store map[uuid.UUID]*Rating }

func newMockRepo() *mockRepo { return &mockRepo{store: make(map[uuid.UUID]*Rating)} }
func (m *mockRepo) Create(_ context.Context, r *Rating) error {
	r.ID = uuid.New()
	r.VersionID = 1
	cp := *r
	cp.Votes = append([]HelpfulnessVote(nil), r.Votes...)
	cp.Reports = append([]Report(nil), r.Reports...)
	m.store[r.ID] = &cp
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Rating, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *r
	cp.Votes = append([]HelpfulnessVote(nil), r.Votes...)
	cp.Reports = append([]Report(nil), r.Reports...)
	return &cp, nil
}
func (m *mockRepo) Update(_ context.Context, r *Rating) error {
	cur, ok := m.store[r.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if cur.VersionID != r.VersionID {
		return apperr.ConcurrentModification("rating", r.ID.String())
	}
	r.VersionID++
	cp := *r
	cp.Votes = append([]HelpfulnessVote(nil), r.Votes...)
	cp.Reports = append([]Report(nil), r.Reports...)
	m.store[r.ID] = &cp
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error { delete(m.store, id); return nil }
func (m *mockRepo) ListByReviewee(_ context.Context, rid uuid.UUID, limit, offset int) ([]*Rating, int, error) {
	var r []*Rating
	for _, rt := range m.store {
		if rt.RevieweeID == rid {
			r = append(r, rt)
		}
	}
	return r, len(r), nil
}
func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Rating, int, error) {
	var r []*Rating
	for _, rt := range m.store {
		r = append(r, rt)
	}
	return r, len(r), nil
}
func (m *mockRepo) SummaryByReviewee(_ context.Context, rid uuid.UUID) (Summary, error) {
	var s Summary
	sum := 0
	for _, rt := range m.store {
		if rt.RevieweeID == rid {
			sum += rt.OverallScore
			s.TotalRatings++
		}
	}
	if s.TotalRatings > 0 {
		s.AverageRating = float64(sum) / float64(s.TotalRatings)
	}
	return s, nil
}

type recordingTrigger struct{ enqueued []uuid.UUID }

func (t *recordingTrigger) Enqueue(_ context.Context, id uuid.UUID) {
	t.enqueued = append(t.enqueued, id)
}

func testResolver(live ...uuid.UUID) *serviceref.Resolver {
	set := make(map[uuid.UUID]bool)
	for _, id := range live {
		set[id] = true
	}
	res := serviceref.NewResolver()
	res.Register(serviceref.KindConsultation, func(_ context.Context, id uuid.UUID) (bool, error) {
		return set[id], nil
	})
	res.Register(serviceref.KindSupportRequest, func(_ context.Context, id uuid.UUID) (bool, error) {
		return set[id], nil
	})
	return res
}

func validRating() *Rating {
	return &Rating{
		ReviewerID:   uuid.New(),
		RevieweeID:   uuid.New(),
		OverallScore: 4,
	}
}

func TestCreate_ScoreBoundaries(t *testing.T) {
	for _, score := range []int{1, 5} {
		svc := NewService(newMockRepo(), testResolver())
		r := validRating()
		r.OverallScore = score
		if err := svc.Create(context.Background(), r); err != nil {
			t.Errorf("score %d should be accepted, got %v", score, err)
		}
	}
	for _, score := range []int{0, 6} {
		svc := NewService(newMockRepo(), testResolver())
		r := validRating()
		r.OverallScore = score
		err := svc.Create(context.Background(), r)
		var oor *apperr.OutOfRangeError
		if !errors.As(err, &oor) {
			t.Errorf("score %d: expected OutOfRangeError, got %v", score, err)
			continue
		}
		if oor.Field != "overall_score" || oor.Value != float64(score) || oor.Min != 1 || oor.Max != 5 {
			t.Errorf("error should carry field, value and bounds: %+v", oor)
		}
	}
}

func TestCreate_CriteriaScoreBounds(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	bad := 6
	r.Criteria.Punctuality = &bad
	err := svc.Create(context.Background(), r)
	var oor *apperr.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if oor.Field != "criteria.punctuality" {
		t.Errorf("error should name the criterion, got %q", oor.Field)
	}
}

func TestCreate_OptionalCriteriaOmitted(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	one, five := 1, 5
	r := validRating()
	r.Criteria = CriteriaScores{Professionalism: &five, Communication: &one}
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_ServiceReference(t *testing.T) {
	live := uuid.New()
	svc := NewService(newMockRepo(), testResolver(live))

	r := validRating()
	r.Service = serviceref.Ref{Kind: serviceref.KindSupportRequest, ID: live}
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatalf("live reference should resolve: %v", err)
	}

	r = validRating()
	r.Service = serviceref.Ref{Kind: "invoice", ID: live}
	if err := svc.Create(context.Background(), r); !errors.Is(err, apperr.ErrUnknownReferenceTarget) {
		t.Errorf("expected unknown reference target, got %v", err)
	}

	r = validRating()
	r.Service = serviceref.Ref{Kind: serviceref.KindConsultation, ID: uuid.New()}
	if err := svc.Create(context.Background(), r); !errors.Is(err, apperr.ErrDanglingReference) {
		t.Errorf("expected dangling reference, got %v", err)
	}
}

func TestCreate_NoServiceReferenceAllowed(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	if err := svc.Create(context.Background(), validRating()); err != nil {
		t.Fatalf("a rating without a service reference should be valid: %v", err)
	}
}

func TestCreate_TriggersRecompute(t *testing.T) {
	trig := &recordingTrigger{}
	svc := NewService(newMockRepo(), testResolver())
	svc.SetRecomputeTrigger(trig)
	r := validRating()
	if err := svc.Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trig.enqueued) != 1 || trig.enqueued[0] != r.RevieweeID {
		t.Errorf("expected one trigger for the reviewee, got %v", trig.enqueued)
	}
}

func TestVote_RepeatVoteReplaces(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)
	voter := uuid.New()

	got, err := svc.Vote(context.Background(), r.ID, voter, true, r.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Votes) != 1 || !got.Votes[0].Helpful {
		t.Fatalf("expected one helpful vote, got %+v", got.Votes)
	}

	got, err = svc.Vote(context.Background(), r.ID, voter, false, got.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Votes) != 1 {
		t.Fatalf("a repeat vote must replace, not append: got %d entries", len(got.Votes))
	}
	if got.Votes[0].Helpful {
		t.Error("the later vote should win")
	}
}

func TestVote_DistinctVotersAccumulate(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)

	got, _ := svc.Vote(context.Background(), r.ID, uuid.New(), true, r.VersionID)
	got, err := svc.Vote(context.Background(), r.ID, uuid.New(), true, got.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Votes) != 2 || got.HelpfulCount() != 2 {
		t.Errorf("expected two helpful votes, got %+v", got.Votes)
	}
}

func TestVote_StaleVersion(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)
	if _, err := svc.Vote(context.Background(), r.ID, uuid.New(), true, r.VersionID+5); !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestReport_AppendsPending(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)

	got, err := svc.Report(context.Background(), r.ID, uuid.New(), "abusive language", r.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = svc.Report(context.Background(), got.ID, uuid.New(), "spam", got.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Reports) != 2 {
		t.Fatalf("reports are append-only, expected 2, got %d", len(got.Reports))
	}
	for _, rep := range got.Reports {
		if rep.Status != "pending" {
			t.Errorf("a new report starts pending, got %q", rep.Status)
		}
	}
}

func TestResolveReport_Lifecycle(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)
	got, _ := svc.Report(context.Background(), r.ID, uuid.New(), "spam", r.VersionID)

	got, err := svc.ResolveReport(context.Background(), got.ID, 0, "reviewed", got.VersionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Reports[0].Status != "reviewed" || got.Reports[0].ResolvedAt == nil {
		t.Errorf("report should be reviewed with a resolution time: %+v", got.Reports[0])
	}

	_, err = svc.ResolveReport(context.Background(), got.ID, 0, "dismissed", got.VersionID)
	var te *apperr.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("reviewed is terminal, expected TransitionError, got %v", err)
	}
	if te.From != "reviewed" || te.To != "dismissed" {
		t.Errorf("error should carry both statuses: %+v", te)
	}
}

func TestResolveReport_BadIndex(t *testing.T) {
	svc := NewService(newMockRepo(), testResolver())
	r := validRating()
	svc.Create(context.Background(), r)
	if _, err := svc.ResolveReport(context.Background(), r.ID, 0, "reviewed", r.VersionID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelete_TriggersRecompute(t *testing.T) {
	trig := &recordingTrigger{}
	svc := NewService(newMockRepo(), testResolver())
	svc.SetRecomputeTrigger(trig)
	r := validRating()
	svc.Create(context.Background(), r)
	if err := svc.Delete(context.Background(), r.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trig.enqueued) != 2 {
		t.Errorf("create and delete should each trigger a recompute, got %d", len(trig.enqueued))
	}
}

func TestSummary_AveragesScores(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testResolver())
	reviewee := uuid.New()
	for _, score := range []int{3, 4, 5} {
		r := validRating()
		r.RevieweeID = reviewee
		r.OverallScore = score
		if err := svc.Create(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	s, err := svc.Summary(context.Background(), reviewee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalRatings != 3 || s.AverageRating != 4 {
		t.Errorf("expected 3 ratings averaging 4, got %+v", s)
	}
}
