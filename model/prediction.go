package model

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction is the write-only audit record of one successful classification.
type Prediction struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"type:varchar(191);index;not null" json:"username"`
	// Inputs holds the resolved feature row as a JSON object in schema order.
	Inputs      datatypes.JSON `gorm:"type:json;not null" json:"inputs"`
	Prediction  string         `gorm:"type:text;not null" json:"prediction"`
	Probability *float64       `json:"probability"`
	CreatedAt   time.Time      `json:"created_at"`
}
