package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmotionalLanguage(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"Calm prose", "the council met on tuesday to discuss the new budget for parks", 0},
		// 20 words, one indicator (2) + one "!" (1) + one caps word (1) = 4 / 2 * 10
		{"Some shouting", "SHOCKING news today! the council met on tuesday to discuss the new budget for parks and other local city matters", 20},
		{"Capped at 100", "BREAKING secret miracle hoax!!!", 100},
		{"No words", "   ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, d.EmotionalLanguage(tt.text), 1e-9)
		})
	}
}

func TestSourceTrust(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, 100.0, d.SourceTrust("According to Reuters, rates rose."))
	assert.Equal(t, 100.0, d.SourceTrust("as reported by the Washington Post"))
	assert.Equal(t, 30.0, d.SourceTrust("my cousin said so"))
}

func TestClaimVerification(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, 30.0, d.ClaimVerification("nothing to check here"))
	assert.Equal(t, 60.0, d.ClaimVerification(`he said "no"`))
	assert.Equal(t, 60.0, d.ClaimVerification("she said “no”"))
	assert.Equal(t, 50.0, d.ClaimVerification("about 12 people"))
	assert.Equal(t, 70.0, d.ClaimVerification("it happened in March 12"))
	assert.Equal(t, 100.0, d.ClaimVerification(`"yes" said 400 people in 2021`))
}

func TestDetect(t *testing.T) {
	d := NewDetector()

	fake, err := d.Detect("SHOCKING miracle cure REVEALED!!! Doctors hate this secret")
	require.NoError(t, err)
	assert.Equal(t, "news", fake.Type)
	assert.True(t, fake.IsFake)
	// emotional 100, trust 30, verification 30: 40 + 28 + 14
	assert.InDelta(t, 82.0, fake.Probability, 1e-9)
	assert.Equal(t, 82, fake.Confidence)
	assert.Equal(t, "High", fake.Details.EmotionalLanguage)
	assert.Equal(t, "Questionable", fake.Details.SourceTrust)
	assert.Equal(t, "Unverified", fake.Details.ClaimVerification)

	genuine, err := d.Detect(`Reuters reported on 4 March 2024 that the central bank "held rates steady" at its meeting.`)
	require.NoError(t, err)
	assert.False(t, genuine.IsFake)
	// emotional 0, trust 100, verification 100
	assert.InDelta(t, 0.0, genuine.Probability, 1e-9)
	assert.Equal(t, 100, genuine.Confidence)
	assert.Equal(t, "Low", genuine.Details.EmotionalLanguage)
	assert.Equal(t, "Trusted", genuine.Details.SourceTrust)
	assert.Equal(t, "Verified", genuine.Details.ClaimVerification)

	_, err = d.Detect(" \n\t")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestProbabilityWeights(t *testing.T) {
	assert.InDelta(t, 1.0, EmotionalWeight+TrustWeight+VerificationWeight, 1e-12)
	assert.InDelta(t, 100.0, Probability(Scores{Emotional: 100, Trust: 0, Verification: 0}), 1e-9)
	assert.InDelta(t, 0.0, Probability(Scores{Emotional: 0, Trust: 100, Verification: 100}), 1e-9)
}
