package medication

import (
	"time"

	"github.com/google/uuid"
)

// Food-timing qualifiers for a dose slot.
var ValidFoodTimings = map[string]bool{
	"before_food": true, "with_food": true, "after_food": true, "any": true,
}

// Outcomes a log row may record for one scheduled firing.
var ValidOutcomes = map[string]bool{
	"taken": true, "missed": true, "delayed": true, "skipped": true,
}

// TimeSlot is one time-of-day dose with its food-timing qualifier.
type TimeSlot struct {
	Time       string `json:"time"`
	FoodTiming string `json:"food_timing"`
}

// MedicationReminder maps to the medication_reminder table: a recurring dose
// schedule bounded by a start date and an optional end date.
type MedicationReminder struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ElderlyID  uuid.UUID  `db:"elderly_id" json:"elderly_id"`
	CreatedBy  uuid.UUID  `db:"created_by" json:"created_by"`
	Medication string     `db:"medication" json:"medication"`
	Dosage     *string    `db:"dosage" json:"dosage,omitempty"`
	TimeSlots  []TimeSlot `db:"time_slots" json:"time_slots"`
	DaysOfWeek []int      `db:"days_of_week" json:"days_of_week"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	Active     bool       `db:"active" json:"active"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	VersionID  int        `db:"version_id" json:"version_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// MedicationLog maps to the medication_log table: one row per scheduled
// firing of a reminder.
type MedicationLog struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ReminderID   uuid.UUID  `db:"reminder_id" json:"reminder_id"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Outcome      string     `db:"outcome" json:"outcome"`
	TakenAt      *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
