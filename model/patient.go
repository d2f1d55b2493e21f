package model

import "gorm.io/gorm"

type Patient struct {
	gorm.Model
	Email    string `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Phone    string `json:"phone" gorm:"column:phone;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"column:name;not null"`
	Address  string `json:"address" gorm:"column:address"`
	Password string `json:"password,omitempty" gorm:"column:password"`
}
