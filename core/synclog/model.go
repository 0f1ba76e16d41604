package synclog

import "time"

// SyncLog is one persisted sync cycle outcome.
//
// The trigger column is named trigger_source because TRIGGER is a reserved
// word in MySQL.
type SyncLog struct {
	ID             string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Target         string     `gorm:"column:target;type:varchar(64);index" json:"target"`
	Trigger        string     `gorm:"column:trigger_source;type:varchar(32)" json:"trigger"`
	Status         string     `gorm:"column:status;type:varchar(32)" json:"status"`
	StartedAt      time.Time  `gorm:"column:started_at" json:"started_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	RecordsAdded   int        `gorm:"column:records_added;default:0" json:"records_added"`
	RecordsUpdated int        `gorm:"column:records_updated;default:0" json:"records_updated"`
	RecordsDeleted int        `gorm:"column:records_deleted;default:0" json:"records_deleted"`
	Errors         string     `gorm:"column:errors;type:text" json:"errors,omitempty"`
	DurationMs     int64      `gorm:"column:duration_ms;default:0" json:"duration_ms"`
}

// TableName overrides the table name.
func (SyncLog) TableName() string {
	return "sync_logs"
}
