package model

import "gorm.io/gorm"

// Doctor represents a doctor account and its advertised weekly availability.
// Each AvailableTimes entry encodes one recurring intra-day interval as
// "HH:MM-HH:MM" (24h); the interval start is the bookable slot.
type Doctor struct {
	gorm.Model
	Email          string   `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Name           string   `json:"name" gorm:"column:name;not null"`
	Specialty      string   `json:"specialty" gorm:"column:specialty"`
	Password       string   `json:"password,omitempty" gorm:"column:password"`
	AvailableTimes []string `json:"available_times" gorm:"column:available_times;serializer:json"`
}
