package synth

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/arkilian/layoutbench/pkg/types"
)

func fixedSynth() *Synthesizer {
	ts := time.Date(2024, 8, 30, 8, 0, 0, 0, time.UTC)
	return New(
		WithClock(func() time.Time { return ts }),
		WithIDGenerator(func() string { return "fixed-id" }),
	)
}

func TestGenerate_SimpleFieldRules(t *testing.T) {
	s := fixedSynth()

	tests := []struct {
		i             int
		theme         string
		language      string
		notifications string
		hasAvatar     bool
	}{
		{1, "light", "en", "false", false},
		{2, "dark", "es", "false", false},
		{3, "light", "ja", "false", true},
		{4, "dark", "en", "true", false},
		{6, "dark", "ja", "false", true},
		{12, "dark", "ja", "true", true},
	}

	for _, tt := range tests {
		rec := s.Generate(tt.i, types.VariantSimple)
		prefs := rec.Profile.Preferences

		if prefs.Theme != tt.theme {
			t.Errorf("i=%d: theme = %q, want %q", tt.i, prefs.Theme, tt.theme)
		}
		if prefs.Language != tt.language {
			t.Errorf("i=%d: language = %q, want %q", tt.i, prefs.Language, tt.language)
		}
		if prefs.Notifications != tt.notifications {
			t.Errorf("i=%d: notifications = %q, want %q", tt.i, prefs.Notifications, tt.notifications)
		}
		if (rec.Profile.AvatarURL != nil) != tt.hasAvatar {
			t.Errorf("i=%d: avatar present = %v, want %v", tt.i, rec.Profile.AvatarURL != nil, tt.hasAvatar)
		}
		if len(rec.Profile.SocialLinks) != 2 {
			t.Errorf("i=%d: expected 2 social links, got %d", tt.i, len(rec.Profile.SocialLinks))
		}
		if rec.Profile.Achievements != nil || rec.Profile.Statistics != nil || rec.Metadata != nil {
			t.Errorf("i=%d: simple record carries complex blocks", tt.i)
		}
	}
}

func TestGenerate_SimpleTemplates(t *testing.T) {
	rec := fixedSynth().Generate(9, types.VariantSimple)

	if rec.Name != "User 9" {
		t.Errorf("name = %q", rec.Name)
	}
	if rec.Email != "user9@example.com" {
		t.Errorf("email = %q", rec.Email)
	}
	if rec.Age != 29 {
		t.Errorf("age = %d, want 29", rec.Age)
	}
	if rec.Profile.Bio != "Bio for user 9" {
		t.Errorf("bio = %q", rec.Profile.Bio)
	}
	if rec.Profile.AvatarURL == nil || *rec.Profile.AvatarURL != "https://example.com/avatar9.jpg" {
		t.Errorf("unexpected avatar %v", rec.Profile.AvatarURL)
	}
	if rec.Profile.SocialLinks[0] != "https://twitter.com/user9" || rec.Profile.SocialLinks[1] != "https://github.com/user9" {
		t.Errorf("unexpected social links %v", rec.Profile.SocialLinks)
	}
}

func TestGenerate_ComplexFirstRecord(t *testing.T) {
	rec := fixedSynth().Generate(1, types.VariantComplex)

	if len(rec.Profile.Achievements) != 2 {
		t.Fatalf("expected 2 achievements, got %d", len(rec.Profile.Achievements))
	}
	if rec.Profile.Achievements[0].Points != 110 || rec.Profile.Achievements[1].Points != 215 {
		t.Errorf("points = %d/%d, want 110/215",
			rec.Profile.Achievements[0].Points, rec.Profile.Achievements[1].Points)
	}

	stats := rec.Profile.Statistics
	if stats == nil {
		t.Fatal("expected statistics block")
	}
	if stats.PostsCount != 105 || stats.FollowersCount != 520 || stats.FollowingCount != 210 ||
		stats.LikesReceived != 1050 || stats.CommentsMade != 53 {
		t.Errorf("unexpected statistics %+v", *stats)
	}

	meta := rec.Metadata
	if meta == nil {
		t.Fatal("expected metadata block")
	}
	wantTags := []string{"tag_1", "category_1", "inactive", "unverified"}
	if strings.Join(meta.Tags, ",") != strings.Join(wantTags, ",") {
		t.Errorf("tags = %v, want %v", meta.Tags, wantTags)
	}
	if meta.LoginCount != 101 || meta.IsVerified || meta.IsPremium {
		t.Errorf("unexpected metadata %+v", *meta)
	}
	if len(rec.Profile.SocialLinks) != 4 {
		t.Errorf("expected 4 social links, got %d", len(rec.Profile.SocialLinks))
	}
	if strings.Count(rec.Profile.Bio, ".") != 1 {
		t.Errorf("complex bio should contain exactly one '.': %q", rec.Profile.Bio)
	}
}

func TestGenerate_ComplexFlags(t *testing.T) {
	s := fixedSynth()

	rec := s.Generate(210, types.VariantComplex)
	if !rec.Metadata.IsVerified || !rec.Metadata.IsPremium {
		t.Error("i=210 should be verified and premium")
	}
	if rec.Metadata.Tags[2] != "active" || rec.Metadata.Tags[3] != "verified" {
		t.Errorf("unexpected tags %v", rec.Metadata.Tags)
	}
	if rec.Metadata.Tags[1] != "category_0" {
		t.Errorf("category tag = %q, want category_0", rec.Metadata.Tags[1])
	}
	acc := rec.Profile.Preferences.Accessibility
	if acc == nil || !acc.HighContrast || !acc.ScreenReader || acc.FontSize != "medium" {
		t.Errorf("unexpected accessibility %+v", acc)
	}
	if rec.Profile.Preferences.Timezone != "Asia/Tokyo" || rec.Profile.Preferences.Currency != "JPY" {
		t.Error("extended preferences missing")
	}
}

func TestGenerate_DefaultIdentifiersAreUnique(t *testing.T) {
	a := Generate(5, types.VariantSimple)
	b := Generate(5, types.VariantSimple)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("same index should fingerprint identically")
	}
}

func TestGenerate_FlatAndDocumentAgree(t *testing.T) {
	rec := fixedSynth().Generate(3, types.VariantComplex)

	flat := rec.FlatAttributes()
	back := flat.Record()

	doc, err := json.Marshal(rec.Profile.Preferences)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	flatDoc, err := json.Marshal(back.Profile.Preferences)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(doc) != string(flatDoc) {
		t.Errorf("preferences differ between representations:\n%s\n%s", doc, flatDoc)
	}
	if back.Name != rec.Name || back.Email != rec.Email || back.Age != rec.Age || back.Profile.Bio != rec.Profile.Bio {
		t.Error("shared scalar fields differ between representations")
	}
}

func TestFingerprint_DiffersAcrossIndexes(t *testing.T) {
	s := fixedSynth()
	if Fingerprint(s.Generate(1, types.VariantComplex)) == Fingerprint(s.Generate(2, types.VariantComplex)) {
		t.Error("different indexes should not collide")
	}
	if Fingerprint(s.Generate(1, types.VariantSimple)) == Fingerprint(s.Generate(1, types.VariantComplex)) {
		t.Error("different variants should not collide")
	}
}
