package model

import "gorm.io/gorm"

// Admin is the only role that authenticates by username.
type Admin struct {
	gorm.Model
	Username string `json:"username" gorm:"column:username;uniqueIndex;not null"`
	Password string `json:"password,omitempty" gorm:"column:password"`
}
