// Package models defines the canonical seller record.
package models

import "time"

// Seller is one row in the canonical sellers table. SellerNumber is the
// business key shared with the spreadsheet; the numeric ID is internal and
// never leaves the database.
type Seller struct {
	ID           uint      `gorm:"primaryKey;column:id;autoIncrement"`
	SellerNumber string    `gorm:"column:seller_number;type:varchar(16);uniqueIndex"`
	Name         string    `gorm:"column:name;type:varchar(255)"`
	Phone        string    `gorm:"column:phone;type:varchar(32)"`
	Email        string    `gorm:"column:email;type:varchar(255)"`
	Address      string    `gorm:"column:address;type:varchar(255)"`
	Price        float64   `gorm:"column:price;type:decimal(12,2);default:0"`
	Status       string    `gorm:"column:status;type:varchar(32)"`
	Notes        string    `gorm:"column:notes;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Seller) TableName() string {
	return "sellers"
}

// Columns lists the spreadsheet-synced columns. Used for the startup schema
// check and as the field order when writing rows back to the sheet.
func Columns() []string {
	return []string{
		"seller_number",
		"name",
		"phone",
		"email",
		"address",
		"price",
		"status",
		"notes",
	}
}
