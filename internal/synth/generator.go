// Package synth produces deterministic synthetic user records.
//
// Every field except the identifier and the creation timestamp is a pure
// function of the 1-based sequence index and the variant, so two datasets
// generated with the same indexes can be compared field by field.
package synth

import (
	"fmt"
	"time"

	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/google/uuid"
)

// Fixed timestamps embedded in complex documents.
const (
	fixedCreatedAt     = "2024-08-30T08:00:00Z"
	fixedSecondEarned  = "2024-08-30T09:00:00Z"
	fixedLastLogin     = "2024-08-30T21:00:00Z"
	complexBioTemplate = "Complex bio for user %d with very long description that includes multiple sentences and various details about their background, interests, and activities."
)

// Synthesizer generates records. The zero value is not usable; call New.
type Synthesizer struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Synthesizer) {
		s.newID = newID
	}
}

// New creates a synthesizer. By default identifiers are random UUIDs and
// timestamps come from the wall clock.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSynthesizer = New()

// Generate produces record i with the default synthesizer.
func Generate(i int, variant types.Variant) types.Record {
	return defaultSynthesizer.Generate(i, variant)
}

// Generate produces record i (1-based) of the given variant.
func (s *Synthesizer) Generate(i int, variant types.Variant) types.Record {
	if variant == types.VariantComplex {
		return s.complexRecord(i)
	}
	return s.simpleRecord(i)
}

func (s *Synthesizer) simpleRecord(i int) types.Record {
	return types.Record{
		ID:    s.newID(),
		Name:  fmt.Sprintf("User %d", i),
		Email: fmt.Sprintf("user%d@example.com", i),
		Age:   age(i),
		Profile: types.Profile{
			Bio:         fmt.Sprintf("Bio for user %d", i),
			AvatarURL:   avatarURL(i),
			Preferences: basePreferences(i),
			SocialLinks: []string{
				fmt.Sprintf("https://twitter.com/user%d", i),
				fmt.Sprintf("https://github.com/user%d", i),
			},
		},
		CreatedAt: s.now(),
	}
}

func (s *Synthesizer) complexRecord(i int) types.Record {
	prefs := basePreferences(i)
	prefs.Timezone = "Asia/Tokyo"
	prefs.Currency = "JPY"
	prefs.DateFormat = "YYYY-MM-DD"
	prefs.TimeFormat = "24h"
	prefs.Accessibility = &types.Accessibility{
		HighContrast: i%2 == 0,
		ScreenReader: i%3 == 0,
		FontSize:     "medium",
	}

	n := int64(i)
	return types.Record{
		ID:    s.newID(),
		Name:  fmt.Sprintf("Complex User %d", i),
		Email: fmt.Sprintf("complex.user%d@example.com", i),
		Age:   age(i),
		Profile: types.Profile{
			Bio:         fmt.Sprintf(complexBioTemplate, i),
			AvatarURL:   avatarURL(i),
			Preferences: prefs,
			SocialLinks: []string{
				fmt.Sprintf("https://twitter.com/complex_user%d", i),
				fmt.Sprintf("https://github.com/complex_user%d", i),
				fmt.Sprintf("https://linkedin.com/in/complex_user%d", i),
				fmt.Sprintf("https://facebook.com/complex_user%d", i),
			},
			Achievements: []types.Achievement{
				{
					ID:          fmt.Sprintf("achievement_%d", i),
					Name:        fmt.Sprintf("Achievement %d", i),
					Description: fmt.Sprintf("Description for achievement %d", i),
					EarnedAt:    fixedCreatedAt,
					Points:      100 + n*10,
				},
				{
					ID:          fmt.Sprintf("achievement_%d_2", i),
					Name:        fmt.Sprintf("Special Achievement %d", i),
					Description: fmt.Sprintf("Special description for achievement %d", i),
					EarnedAt:    fixedSecondEarned,
					Points:      200 + n*15,
				},
			},
			Statistics: &types.Statistics{
				PostsCount:     100 + n*5,
				FollowersCount: 500 + n*20,
				FollowingCount: 200 + n*10,
				LikesReceived:  1000 + n*50,
				CommentsMade:   50 + n*3,
			},
		},
		Metadata: &types.Metadata{
			CreatedAt:  fixedCreatedAt,
			LastLogin:  fixedLastLogin,
			LoginCount: 100 + n,
			IsVerified: i%5 == 0,
			IsPremium:  i%7 == 0,
			Tags:       tags(i),
		},
		CreatedAt: s.now(),
	}
}

func age(i int) int {
	return 20 + i%60
}

func avatarURL(i int) *string {
	if i%3 != 0 {
		return nil
	}
	url := fmt.Sprintf("https://example.com/avatar%d.jpg", i)
	return &url
}

func basePreferences(i int) types.Preferences {
	return types.Preferences{
		Theme:         theme(i),
		Language:      language(i),
		Notifications: notifications(i),
	}
}

func theme(i int) string {
	if i%2 == 0 {
		return "dark"
	}
	return "light"
}

func language(i int) string {
	switch i % 3 {
	case 0:
		return "ja"
	case 1:
		return "en"
	default:
		return "es"
	}
}

func notifications(i int) string {
	if i%4 == 0 {
		return "true"
	}
	return "false"
}

func tags(i int) []string {
	activity := "inactive"
	if i%2 == 0 {
		activity = "active"
	}
	verification := "unverified"
	if i%3 == 0 {
		verification = "verified"
	}
	return []string{
		fmt.Sprintf("tag_%d", i),
		fmt.Sprintf("category_%d", i%10),
		activity,
		verification,
	}
}
