package model

import "time"

// User 本地目录中的身份资料（identity.provider=directory 时作为身份源）
type User struct {
	ID              string `gorm:"primaryKey;type:varchar(64)"`
	FirstName       string `gorm:"type:varchar(128)"`
	LastName        string `gorm:"type:varchar(128)"`
	Email           string `gorm:"type:varchar(255);index"`
	ProfileImageURL string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }

// Profile 投影为对外的作者资料
func (u *User) Profile() AuthorProfile {
	p := AuthorProfile{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		EmailAddresses:  []EmailAddress{},
		ProfileImageURL: u.ProfileImageURL,
	}
	if u.Email != "" {
		p.EmailAddresses = append(p.EmailAddresses, EmailAddress{EmailAddress: u.Email})
	}
	return p
}
