package models

import (
	"time"
)

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null"    json:"name"`
}

type UserRank struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string  `gorm:"uniqueIndex;size:50"       json:"name"`
	MinPoints int     `gorm:"not null;default:0"        json:"minPoints"`
	MaxPoints int     `gorm:"not null;default:0"        json:"maxPoints"`
	Discount  float64 `gorm:"not null;default:0"        json:"discount"`
}

// User is the identity record. RefreshToken holds the single refresh
// token currently accepted for this identity.
type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username        string    `gorm:"uniqueIndex;size:50;not null"  json:"username"`
	PasswordHash    string    `gorm:"not null"                      json:"-"`
	Email           *string   `gorm:"uniqueIndex;size:100"          json:"email"`
	Phone           string    `gorm:"size:20"                       json:"phone"`
	Avatar          string    `json:"avatar"`
	Address         string    `json:"address"`
	RoleID          uint      `gorm:"not null"                      json:"roleId"`
	Role            Role      `gorm:"foreignKey:RoleID"             json:"role"`
	RankID          *uint     `json:"rankId"`
	Rank            *UserRank `gorm:"foreignKey:RankID"             json:"rank,omitempty"`
	Points          int       `gorm:"not null;default:0"            json:"points"`
	IsEmailVerified bool      `gorm:"not null;default:false"        json:"isEmailVerified"`
	RefreshToken    *string   `gorm:"type:text"                     json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
