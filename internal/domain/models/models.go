package models

import (
	"moviehub/proj/internal/domain/fields"
	"time"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin, RoleOwner:
		return r
	default:
		return RoleGuest
	}
}

// CanEdit reports whether the role may manage the catalog.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleOwner
}

// User is projected from the session token, it is never stored on its own.
type User struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

var AnonymousUser = &User{Role: RoleGuest}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser
}

type Profile struct {
	ID           fields.ID        `json:"id"`
	RawID        fields.ID        `json:"_id,omitempty"`
	Name         string           `json:"name"`
	MaxAgeRating fields.AgeRating `json:"maxAgeRating"`
}

// Normalize fills ID from the backend's document id.
func (p *Profile) Normalize() {
	if p.RawID != "" {
		p.ID = p.RawID
		return
	}
	p.RawID = p.ID
}

type ProfileInput struct {
	Name         string           `json:"name" validate:"required,min=1,max=40"`
	MaxAgeRating fields.AgeRating `json:"maxAgeRating" validate:"required,agerating"`
}

type Movie struct {
	ID          fields.ID        `json:"id"`
	RawID       fields.ID        `json:"_id,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Year        int32            `json:"year,omitempty"`
	Genres      []string         `json:"genres,omitempty"`
	AgeRating   fields.AgeRating `json:"ageRating"`
	Image       string           `json:"image,omitempty"`
	TrailerURL  string           `json:"trailerUrl,omitempty"`
}

func (m *Movie) Normalize() {
	if m.RawID != "" {
		m.ID = m.RawID
		return
	}
	m.RawID = m.ID
}

// HasID matches either id representation.
func (m *Movie) HasID(id string) bool {
	return id != "" && (string(m.ID) == id || string(m.RawID) == id)
}

type MovieInput struct {
	Title       string           `json:"title" validate:"required,min=2"`
	Description string           `json:"description" validate:"required,min=10"`
	Year        int32            `json:"year" validate:"required,gte=1895,movieyear"`
	Genres      []string         `json:"genres" validate:"required,min=1,genres"`
	AgeRating   fields.AgeRating `json:"ageRating" validate:"required,agerating"`
	Image       string           `json:"image,omitempty" validate:"omitempty,posterref"`
	TrailerURL  string           `json:"trailerUrl,omitempty" validate:"omitempty,url"`
}

// MoviePage is the backend's list envelope.
type MoviePage struct {
	Movies     []Movie `json:"movies"`
	TotalPages int     `json:"totalPages"`
}

type WatchlistEntry struct {
	ID        fields.ID        `json:"id"`
	Title     string           `json:"title"`
	Image     string           `json:"image,omitempty"`
	Year      int32            `json:"year,omitempty"`
	AgeRating fields.AgeRating `json:"ageRating,omitempty"`
}

func WatchlistEntryFromMovie(m Movie) WatchlistEntry {
	id := m.ID
	if id == "" {
		id = m.RawID
	}
	return WatchlistEntry{
		ID:        id,
		Title:     m.Title,
		Image:     m.Image,
		Year:      m.Year,
		AgeRating: m.AgeRating,
	}
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
