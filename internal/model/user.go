package model

import "time"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
)

// ParseLanguage falls back to English for anything it does not know.
func ParseLanguage(s string) Language {
	if Language(s) == LanguageGerman {
		return LanguageGerman
	}
	return LanguageEnglish
}

type User struct {
	ID           UserID     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Language     Language   `json:"language"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

func (u User) IsDeleted() bool { return u.DeletedAt != nil }
