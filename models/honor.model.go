package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HonorType enum values
const (
	HonorTypeCertificate = "certificate"
	HonorTypeBadge       = "badge"
)

// EventType enum values
const (
	EventTypeCourse        = "course"
	EventTypeExam          = "exam"
	EventTypeParticipation = "participation"
	EventTypeCustom        = "custom"
)

// Honor status enum values
const (
	HonorStatusActive  = "active"
	HonorStatusRevoked = "revoked"
	HonorStatusExpired = "expired"
)

// IssueMode enum values
const (
	IssueModeAuto      = "auto"
	IssueModeManual    = "manual"
	IssueModeBulk      = "bulk"
	IssueModeRuleBased = "rule_based"
)

type Recipient struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type CourseDetail struct {
	CourseID             string     `json:"course_id,omitempty"`
	Title                string     `json:"title"`
	CompletionPercentage float64    `json:"completion_percentage,omitempty"`
	CompletionDate       *time.Time `json:"completion_date,omitempty"`
	Duration             string     `json:"duration,omitempty"`
	BatchID              string     `json:"batch_id,omitempty"`
}

type ExamDetail struct {
	ExamID       string     `json:"exam_id,omitempty"`
	ExamTitle    string     `json:"exam_title"`
	SecuredScore float64    `json:"secured_score"`
	TotalScore   float64    `json:"total_score"`
	Percentage   float64    `json:"percentage"`
	Rank         int        `json:"rank"`
	Passed       bool       `json:"passed"`
	AttemptDate  *time.Time `json:"attempt_date,omitempty"`
	AttemptType  string     `json:"attempt_type,omitempty"`
	BatchID      string     `json:"batch_id,omitempty"`
}

type ParticipationDetail struct {
	EventID    string     `json:"event_id,omitempty"`
	EventTitle string     `json:"event_title"`
	EventDate  *time.Time `json:"event_date,omitempty"`
	Location   string     `json:"location,omitempty"`
}

type BadgeDetail struct {
	BadgeID   string `json:"badge_id,omitempty"`
	BadgeName string `json:"badge_name"`
	Level     int    `json:"level"`
	Criteria  string `json:"criteria,omitempty"`
}

// Assets holds only object-store keys. Signed URLs are minted per request
// and never persisted.
type Assets struct {
	PdfKey   string `json:"pdf_key,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
}

type AuditEntry struct {
	Action string    `json:"action"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// Honor is one issued certificate or badge instance
type Honor struct {
	gorm.Model
	ClientID        string                                 `gorm:"not null;default:'default'" json:"client_id"`
	HonorType       string                                 `gorm:"not null;type:varchar(20)" json:"honor_type"`
	EventType       string                                 `gorm:"not null;type:varchar(20)" json:"event_type"`
	Recipient       datatypes.JSONType[Recipient]          `json:"recipient"`
	Course          *datatypes.JSONType[CourseDetail]      `json:"course,omitempty"`
	Exam            *datatypes.JSONType[ExamDetail]        `json:"exam,omitempty"`
	Participation   *datatypes.JSONType[ParticipationDetail] `json:"participation,omitempty"`
	Badge           *datatypes.JSONType[BadgeDetail]       `json:"badge,omitempty"`
	TemplateID      uint                                   `gorm:"not null;index" json:"template_id"`
	TemplateVersion int                                    `gorm:"not null" json:"template_version"`
	Assets          datatypes.JSONType[Assets]             `json:"assets"`
	IssueMode       string                                 `gorm:"type:varchar(20);default:'manual'" json:"issue_mode"`
	IssuedBy        string                                 `gorm:"default:'system'" json:"issued_by"`
	Metadata        datatypes.JSONMap                      `json:"metadata"`
	PublicSlug      string                                 `gorm:"uniqueIndex;not null" json:"public_slug"`
	Status          string                                 `gorm:"not null;type:varchar(20);default:'active'" json:"status"`
	ExpiryDate      *time.Time                             `json:"expiry_date"`
	Audit           datatypes.JSONType[[]AuditEntry]       `json:"audit"`
}

func (Honor) TableName() string {
	return "honors"
}

// AppendAudit adds an entry to the append-only audit trail. Existing entries
// are never rewritten.
func (h *Honor) AppendAudit(action, actor string) {
	trail := h.Audit.Data()
	trail = append(trail, AuditEntry{Action: action, Actor: actor, At: time.Now()})
	h.Audit = datatypes.NewJSONType(trail)
}

// EffectiveStatus derives "expired" from the expiry date for honors that are
// still stored as active. Revoked is terminal and never overridden.
func (h *Honor) EffectiveStatus(now time.Time) string {
	if h.Status == HonorStatusActive && h.ExpiryDate != nil && h.ExpiryDate.Before(now) {
		return HonorStatusExpired
	}
	return h.Status
}
