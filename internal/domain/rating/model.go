package rating

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/serviceref"
)

// CriteriaScores holds the optional per-criterion scores. Each set score is
// bounded to [1,5] inclusive, the same range as the overall score.
type CriteriaScores struct {
	Professionalism *int `json:"professionalism,omitempty"`
	Communication   *int `json:"communication,omitempty"`
	Punctuality     *int `json:"punctuality,omitempty"`
	Effectiveness   *int `json:"effectiveness,omitempty"`
}

// HelpfulnessVote records one voter's verdict on a rating. A voter appears at
// most once per rating; a repeat vote replaces the earlier entry.
type HelpfulnessVote struct {
	VoterID uuid.UUID `json:"voter_id"`
	Helpful bool      `json:"helpful"`
	VotedAt time.Time `json:"voted_at"`
}

// Report is one entry in the append-only report log embedded on a rating.
type Report struct {
	ReporterID uuid.UUID  `json:"reporter_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	ReportedAt time.Time  `json:"reported_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Rating is feedback left by one party about another, optionally tied to the
// service instance being rated. Votes and reports are stored as embedded
// jsonb documents on the rating row.
type Rating struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	ReviewerID   uuid.UUID         `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID   uuid.UUID         `db:"reviewee_id" json:"reviewee_id"`
	Service      serviceref.Ref    `json:"service"`
	OverallScore int               `db:"overall_score" json:"overall_score"`
	Criteria     CriteriaScores    `db:"criteria" json:"criteria"`
	Comment      *string           `db:"comment" json:"comment,omitempty"`
	Votes        []HelpfulnessVote `db:"votes" json:"votes"`
	Reports      []Report          `db:"reports" json:"reports"`
	VersionID    int               `db:"version_id" json:"version_id"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// HelpfulCount tallies the votes that marked the rating helpful.
func (r *Rating) HelpfulCount() int {
	n := 0
	for _, v := range r.Votes {
		if v.Helpful {
			n++
		}
	}
	return n
}
