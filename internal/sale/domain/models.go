package domain

import "time"

// TimestampLayout matches the ISO-8601 strings already stored by earlier tills.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Session is one computer-usage record. Rows are insert-only.
type Session struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Computer  string `json:"computer" gorm:"column:computer;type:text"`
	Duration  int    `json:"duration" gorm:"column:duration"`
	Charge    int64  `json:"charge" gorm:"column:charge"`
	Timestamp string `json:"timestamp" gorm:"column:timestamp;type:text"`
}

func (Session) TableName() string { return "sessions" }

// Product is one sold product or service. Rows are insert-only.
type Product struct {
	ID        int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string  `json:"name" gorm:"column:name;type:text"`
	Price     float64 `json:"price" gorm:"column:price"`
	Timestamp string  `json:"timestamp" gorm:"column:timestamp;type:text"`
}

func (Product) TableName() string { return "products" }

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
