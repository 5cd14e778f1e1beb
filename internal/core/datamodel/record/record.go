package record

import "time"

// StoreRecord is one JSON document of a collection in the local backend.
type StoreRecord struct {
	ID         int64     `gorm:"primaryKey"`
	Collection string    `gorm:"column:collection;index;not null"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (StoreRecord) TableName() string {
	return "store_records"
}
