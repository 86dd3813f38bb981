// Package deadletter records episode writes that exhausted their retry
// budget so operators can inspect and replay them out of band.
package deadletter

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// Record is a terminally failed episode write preserved for operators.
type Record struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"type:text;index" json:"user_id"`
	SessionID   string         `gorm:"type:text;index" json:"session_id"`
	AgentID     string         `gorm:"type:text" json:"agent_id"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Attempts    int            `gorm:"not null" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"last_error"`
	SubmittedAt time.Time      `json:"submitted_at"`
	FailedAt    time.Time      `gorm:"autoCreateTime;index" json:"failed_at"`
}

// TableName sets the persisted table name.
func (Record) TableName() string {
	return "episode_dead_letters"
}

// Recorder stores terminal failures. Recording is best effort: callers log
// and continue when it fails, they never propagate the error upstream.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}
