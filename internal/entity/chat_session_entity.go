package entity

import "time"

type ChatSession struct {
	Id        uint
	UserId    string
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
