// Package news scores a piece of text for the surface markers of fabricated
// news: sensational wording, absence of trusted sources and absence of
// checkable claims. Like the video heuristics it is a best-effort signal.
package news

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/andresmejia3/deepscan/internal/types"
)

// ErrEmptyText is returned for input without any words.
var ErrEmptyText = errors.New("no text provided")

// Weights of the three signals in the fake probability.
const (
	EmotionalWeight    = 0.4
	TrustWeight        = 0.4
	VerificationWeight = 0.2
)

var (
	capsWord   = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	anyNumber  = regexp.MustCompile(`\d+`)
	dateMarker = regexp.MustCompile(`\b\d{4}\b|\b(January|February|March|April|May|June|July|August|September|October|November|December)\b`)
)

// Detector holds the phrase lists the scores are computed from.
type Detector struct {
	FakeIndicators []string
	TrustedSources []string
}

// NewDetector returns a detector with the built-in phrase lists.
func NewDetector() *Detector {
	return &Detector{
		FakeIndicators: []string{
			"shocking", "unbelievable", "breaking", "must see", "you won't believe",
			"doctors hate", "secret", "they don't want you to know", "miracle",
			"amazing", "revealed", "exposed", "truth", "hoax", "conspiracy",
		},
		TrustedSources: []string{
			"bbc", "reuters", "ap news", "associated press", "npr", "pbs",
			"wall street journal", "new york times", "washington post", "the guardian",
		},
	}
}

// Scores are the three signals, each in [0,100].
type Scores struct {
	Emotional    float64
	Trust        float64
	Verification float64
}

// EmotionalLanguage rates sensational phrasing, exclamation marks and shouted
// words relative to text length.
func (d *Detector) EmotionalLanguage(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, phrase := range d.FakeIndicators {
		if strings.Contains(lower, phrase) {
			hits++
		}
	}
	exclamations := strings.Count(text, "!")
	caps := len(capsWord.FindAllString(text, -1))

	score := float64(hits*2+exclamations+caps) / (float64(words) / 10)
	return math.Min(score*10, 100)
}

// SourceTrust is 100 when a trusted outlet is named and 30 otherwise.
func (d *Detector) SourceTrust(text string) float64 {
	lower := strings.ToLower(text)
	for _, src := range d.TrustedSources {
		if strings.Contains(lower, src) {
			return 100
		}
	}
	return 30
}

// ClaimVerification rewards quotes, numbers and dates, starting from 30.
func (d *Detector) ClaimVerification(text string) float64 {
	score := 30.0
	if strings.ContainsAny(text, "\"“”") {
		score += 30
	}
	if anyNumber.MatchString(text) {
		score += 20
	}
	if dateMarker.MatchString(text) {
		score += 20
	}
	return math.Min(score, 100)
}

// Score computes all three signals.
func (d *Detector) Score(text string) Scores {
	return Scores{
		Emotional:    d.EmotionalLanguage(text),
		Trust:        d.SourceTrust(text),
		Verification: d.ClaimVerification(text),
	}
}

// Probability combines the signals into a fake probability in [0,100].
func Probability(s Scores) float64 {
	return s.Emotional*EmotionalWeight + (100-s.Trust)*TrustWeight + (100-s.Verification)*VerificationWeight
}

// Detect scores text and builds the result record.
func (d *Detector) Detect(text string) (*types.NewsResult, error) {
	if len(strings.Fields(text)) == 0 {
		return nil, ErrEmptyText
	}
	s := d.Score(text)
	p := Probability(s)
	fake := p > 50

	confidence := p
	if !fake {
		confidence = 100 - p
	}

	res := &types.NewsResult{
		Type:        "news",
		IsFake:      fake,
		Confidence:  int(math.Round(confidence)),
		Probability: p,
		Details: types.NewsDetails{
			EmotionalLanguage: label(s.Emotional > 50, "High", "Low"),
			SourceTrust:       label(s.Trust > 60, "Trusted", "Questionable"),
			ClaimVerification: label(s.Verification > 60, "Verified", "Unverified"),
		},
	}
	return res, nil
}

func label(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
