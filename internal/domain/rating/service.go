package rating

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/lifecycle"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

// RecomputeTrigger enqueues a doctor aggregate rebuild. Implemented by the
// redis trigger queue; nil disables triggering.
type RecomputeTrigger interface {
	Enqueue(ctx context.Context, doctorID uuid.UUID)
}

type Service struct {
	repo     Repository
	resolver *serviceref.Resolver
	triggers RecomputeTrigger
}

func NewService(repo Repository, resolver *serviceref.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// SetRecomputeTrigger attaches the aggregate trigger queue.
func (s *Service) SetRecomputeTrigger(t RecomputeTrigger) { s.triggers = t }

func (s *Service) trigger(ctx context.Context, revieweeID uuid.UUID) {
	if s.triggers != nil {
		s.triggers.Enqueue(ctx, revieweeID)
	}
}

func checkScore(field string, v int) error {
	if v < 1 || v > 5 {
		return apperr.OutOfRange(field, float64(v), 1, 5)
	}
	return nil
}

func (s *Service) validate(r *Rating) error {
	if r.ReviewerID == uuid.Nil {
		return apperr.Validation("reviewer_id", "reviewer_id is required")
	}
	if r.RevieweeID == uuid.Nil {
		return apperr.Validation("reviewee_id", "reviewee_id is required")
	}
	if err := checkScore("overall_score", r.OverallScore); err != nil {
		return err
	}
	for field, v := range map[string]*int{
		"criteria.professionalism": r.Criteria.Professionalism,
		"criteria.communication":   r.Criteria.Communication,
		"criteria.punctuality":     r.Criteria.Punctuality,
		"criteria.effectiveness":   r.Criteria.Effectiveness,
	} {
		if v == nil {
			continue
		}
		if err := checkScore(field, *v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, r *Rating) error {
	if err := s.validate(r); err != nil {
		return err
	}
	if err := r.Service.Validate(); err != nil {
		return err
	}
	if s.resolver != nil {
		if err := s.resolver.Resolve(ctx, r.Service); err != nil {
			return err
		}
	}
	if len(r.Votes) != 0 || len(r.Reports) != 0 {
		return apperr.Validation("votes", "votes and reports are recorded after creation")
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return err
	}
	s.trigger(ctx, r.RevieweeID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Rating, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*Rating, int, error) {
	return s.repo.ListByReviewee(ctx, revieweeID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Rating, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// Update rewrites the reviewer-editable fields. Identity, service reference,
// votes and reports are not touched here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, score int, criteria CriteriaScores, comment *string, version int) (*Rating, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.OverallScore = score
	r.Criteria = criteria
	r.Comment = comment
	r.VersionID = version
	if err := s.validate(r); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.trigger(ctx, r.RevieweeID)
	return r, nil
}

// Vote records a helpfulness vote. A voter appears at most once per rating:
// a repeat vote from the same voter replaces the earlier entry in place.
func (s *Service) Vote(ctx context.Context, id, voterID uuid.UUID, helpful bool, version int) (*Rating, error) {
	if voterID == uuid.Nil {
		return nil, apperr.Validation("voter_id", "voter_id is required")
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.VersionID = version
	vote := HelpfulnessVote{VoterID: voterID, Helpful: helpful, VotedAt: time.Now().UTC()}
	replaced := false
	for i := range r.Votes {
		if r.Votes[i].VoterID == voterID {
			r.Votes[i] = vote
			replaced = true
			break
		}
	}
	if !replaced {
		r.Votes = append(r.Votes, vote)
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Report appends an entry to the rating's report log. Entries start pending
// and are never removed.
func (s *Service) Report(ctx context.Context, id, reporterID uuid.UUID, reason string, version int) (*Rating, error) {
	if reporterID == uuid.Nil {
		return nil, apperr.Validation("reporter_id", "reporter_id is required")
	}
	if reason == "" {
		return nil, apperr.Validation("reason", "reason is required")
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.VersionID = version
	r.Reports = append(r.Reports, Report{
		ReporterID: reporterID,
		Reason:     reason,
		Status:     "pending",
		ReportedAt: time.Now().UTC(),
	})
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ResolveReport moves the report at the given position through its status
// machine. Reviewed and dismissed are terminal.
func (s *Service) ResolveReport(ctx context.Context, id uuid.UUID, index int, status string, version int) (*Rating, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(r.Reports) {
		return nil, apperr.Validation("report", "no report at position %d", index)
	}
	rep := &r.Reports[index]
	if err := lifecycle.RatingReport.Check(rep.Status, status); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rep.Status = status
	rep.ResolvedAt = &now
	r.VersionID = version
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.trigger(ctx, r.RevieweeID)
	return nil
}

// Summary exposes the aggregate used for doctor profile recomputation.
func (s *Service) Summary(ctx context.Context, revieweeID uuid.UUID) (Summary, error) {
	return s.repo.SummaryByReviewee(ctx, revieweeID)
}
