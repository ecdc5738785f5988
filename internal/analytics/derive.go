package analytics

import (
	"strings"
	"unicode/utf8"
)

// TagAnalysis summarizes the metadata tag list.
type TagAnalysis struct {
	TotalTags        int     `json:"total_tags"`
	VerifiedTags     int     `json:"verified_tags"`
	VerificationRate float64 `json:"verification_rate"`
}

// BioAnalysis holds text statistics for the profile bio.
type BioAnalysis struct {
	WordCount           int     `json:"word_count"`
	CharCount           int     `json:"char_count"`
	SentenceCount       int     `json:"sentence_count"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
}

// EngagementRate returns posts per follower as a percentage, or 0 when there
// are no followers.
func EngagementRate(posts, followers float64) float64 {
	if followers == 0 {
		return 0
	}
	return posts / followers * 100
}

// AnalyzeTags counts the tags exactly equal to "verified".
func AnalyzeTags(tags []string) TagAnalysis {
	a := TagAnalysis{TotalTags: len(tags)}
	for _, tag := range tags {
		if tag == "verified" {
			a.VerifiedTags++
		}
	}
	if a.TotalTags > 0 {
		a.VerificationRate = float64(a.VerifiedTags) / float64(a.TotalTags) * 100
	}
	return a
}

// SumAchievementPoints adds up achievement points. Entries without points are
// passed as nil and contribute nothing.
func SumAchievementPoints(points []*int64) int64 {
	var total int64
	for _, p := range points {
		if p != nil {
			total += *p
		}
	}
	return total
}

// AnalyzeBio counts whitespace separated words, Unicode scalar values and '.'
// characters. Every '.' counts as a sentence end.
func AnalyzeBio(bio string) BioAnalysis {
	a := BioAnalysis{
		WordCount:     len(strings.Fields(bio)),
		CharCount:     utf8.RuneCountInString(bio),
		SentenceCount: strings.Count(bio, "."),
	}
	if a.SentenceCount > 0 {
		a.AvgWordsPerSentence = float64(a.WordCount) / float64(a.SentenceCount)
	}
	return a
}
