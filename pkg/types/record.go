// Package types provides the core record types shared by every layoutbench component.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Variant selects which optional sub-structures a generated record carries.
type Variant string

const (
	VariantSimple  Variant = "simple"
	VariantComplex Variant = "complex"
)

// Representation is the storage layout a record is written in.
type Representation string

const (
	// RepresentationFlat stores each attribute in its own column.
	RepresentationFlat Representation = "flat"
	// RepresentationDocument stores the whole record as one serialized blob.
	RepresentationDocument Representation = "document"
)

// ParseVariant parses a variant name (case-insensitive).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "":
		return VariantSimple, nil
	case "complex":
		return VariantComplex, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// ParseRepresentation parses a representation name. The legacy route names
// "column" and "json" are accepted as aliases for flat and document.
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "column":
		return RepresentationFlat, nil
	case "document", "json":
		return RepresentationDocument, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRepresentation, s)
	}
}

// Record is the typed document form of a user record. Complex-only blocks are
// pointers or omitempty slices so a simple record serializes to the simple shape.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Profile   Profile   `json:"profile"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the nested wrapper around the descriptive fields.
type Profile struct {
	Bio          string        `json:"bio"`
	AvatarURL    *string       `json:"avatar_url"`
	Preferences  Preferences   `json:"preferences"`
	SocialLinks  []string      `json:"social_links"`
	Achievements []Achievement `json:"achievements,omitempty"`
	Statistics   *Statistics   `json:"statistics,omitempty"`
}

// Preferences holds the fixed preference keys. The extended keys are only
// populated for complex records.
type Preferences struct {
	Theme         string         `json:"theme"`
	Language      string         `json:"language"`
	Notifications string         `json:"notifications"`
	Timezone      string         `json:"timezone,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	DateFormat    string         `json:"date_format,omitempty"`
	TimeFormat    string         `json:"time_format,omitempty"`
	Accessibility *Accessibility `json:"accessibility,omitempty"`
}

// Accessibility holds nested accessibility flags.
type Accessibility struct {
	HighContrast bool   `json:"high_contrast"`
	ScreenReader bool   `json:"screen_reader"`
	FontSize     string `json:"font_size"`
}

// Achievement is one earned achievement.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EarnedAt    string `json:"earned_at"`
	Points      int64  `json:"points"`
}

// Statistics holds activity counters.
type Statistics struct {
	PostsCount     int64 `json:"posts_count"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	LikesReceived  int64 `json:"likes_received"`
	CommentsMade   int64 `json:"comments_made"`
}

// Metadata is the account block that sits beside the profile.
type Metadata struct {
	CreatedAt  string   `json:"created_at"`
	LastLogin  string   `json:"last_login"`
	LoginCount int64    `json:"login_count"`
	IsVerified bool     `json:"is_verified"`
	IsPremium  bool     `json:"is_premium"`
	Tags       []string `json:"tags"`
}

// FlatAttributes is the per-column projection of a record. Blocks without a
// column (achievements, statistics, metadata) are not part of the flat layout.
type FlatAttributes struct {
	ID          string
	Name        string
	Email       string
	Age         int
	Bio         string
	AvatarURL   *string
	Preferences Preferences
	SocialLinks []string
	CreatedAt   time.Time
}

// FlatAttributes projects the record onto the flat layout.
func (r *Record) FlatAttributes() FlatAttributes {
	return FlatAttributes{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Age:         r.Age,
		Bio:         r.Profile.Bio,
		AvatarURL:   r.Profile.AvatarURL,
		Preferences: r.Profile.Preferences,
		SocialLinks: r.Profile.SocialLinks,
		CreatedAt:   r.CreatedAt,
	}
}

// Record rebuilds the nested form from flat attributes.
func (f FlatAttributes) Record() Record {
	return Record{
		ID:    f.ID,
		Name:  f.Name,
		Email: f.Email,
		Age:   f.Age,
		Profile: Profile{
			Bio:         f.Bio,
			AvatarURL:   f.AvatarURL,
			Preferences: f.Preferences,
			SocialLinks: f.SocialLinks,
		},
		CreatedAt: f.CreatedAt,
	}
}
