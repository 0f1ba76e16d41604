package snapshot

import "time"

// Snapshot is the metadata row for one stored snapshot. The record payload
// itself lives in object storage under ObjectKey.
type Snapshot struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Target      string    `gorm:"column:target;type:varchar(64);index" json:"target"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	RecordCount int       `gorm:"column:record_count;default:0" json:"record_count"`
	Description string    `gorm:"column:description;type:varchar(255)" json:"description"`
	ObjectKey   string    `gorm:"column:object_key;type:varchar(255)" json:"-"`
}

// TableName overrides the table name.
func (Snapshot) TableName() string {
	return "snapshots"
}
