// Package analytics derives metrics from nested user documents.
//
// The transform never decodes into a generic tree and never mutates its input.
// Values are read by path with gjson and each derived block is written into a
// fresh copy of the document with sjson. A block whose source fields are
// missing is skipped without affecting the others.
package analytics

import (
	"strconv"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Paths read and written by the transform.
const (
	pathPosts        = "profile.statistics.posts_count"
	pathFollowers    = "profile.statistics.followers_count"
	pathEngagement   = "profile.statistics.engagement_rate"
	pathTags         = "metadata.tags"
	pathTagAnalysis  = "metadata.tag_analysis"
	pathAchievements = "profile.achievements"
	pathTotalPoints  = "profile.total_achievement_points"
	pathBio          = "profile.bio"
	pathBioAnalysis  = "profile.bio_analysis"
)

// Transform returns a copy of doc with the derived blocks added. A document
// that is not valid JSON, or whose root is not an object, is a parse error.
func Transform(doc []byte) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, benchErrors.NewParseError(benchErrors.CodeMalformedDocument, "document is not valid JSON", nil)
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, benchErrors.NewParseError(benchErrors.CodeMalformedDocument, "document root is not an object", nil)
	}

	out := make([]byte, len(doc))
	copy(out, doc)

	var err error
	if out, err = deriveEngagement(out, root); err != nil {
		return nil, err
	}
	if out, err = deriveTags(out, root); err != nil {
		return nil, err
	}
	if out, err = deriveAchievements(out, root); err != nil {
		return nil, err
	}
	if out, err = deriveBio(out, root); err != nil {
		return nil, err
	}
	return out, nil
}

func deriveEngagement(out []byte, root gjson.Result) ([]byte, error) {
	posts := root.Get(pathPosts)
	followers := root.Get(pathFollowers)
	if posts.Type != gjson.Number || followers.Type != gjson.Number {
		return out, nil
	}
	return set(out, pathEngagement, EngagementRate(posts.Float(), followers.Float()))
}

func deriveTags(out []byte, root gjson.Result) ([]byte, error) {
	list := root.Get(pathTags)
	if !list.IsArray() {
		return out, nil
	}
	var tags []string
	for _, tag := range list.Array() {
		// Non-string entries still count towards the total.
		tags = append(tags, tag.Str)
	}
	return set(out, pathTagAnalysis, AnalyzeTags(tags))
}

func deriveAchievements(out []byte, root gjson.Result) ([]byte, error) {
	list := root.Get(pathAchievements)
	if !list.IsArray() {
		return out, nil
	}
	var points []*int64
	list.ForEach(func(_, entry gjson.Result) bool {
		points = append(points, wholePoints(entry.Get("points")))
		return true
	})
	return set(out, pathTotalPoints, SumAchievementPoints(points))
}

// wholePoints returns p when it is a non-negative integer literal. Fractions,
// exponents, negatives and non-numbers are ignored.
func wholePoints(p gjson.Result) *int64 {
	if p.Type != gjson.Number {
		return nil
	}
	v, err := strconv.ParseUint(p.Raw, 10, 63)
	if err != nil {
		return nil
	}
	n := int64(v)
	return &n
}

func deriveBio(out []byte, root gjson.Result) ([]byte, error) {
	bio := root.Get(pathBio)
	if bio.Type != gjson.String {
		return out, nil
	}
	return set(out, pathBioAnalysis, AnalyzeBio(bio.Str))
}

func set(doc []byte, path string, value interface{}) ([]byte, error) {
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return nil, benchErrors.NewInternalError("failed to write "+path, err)
	}
	return out, nil
}
