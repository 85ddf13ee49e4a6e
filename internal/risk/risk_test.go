package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	th := Thresholds{Suspicious: 31, Scam: 70}

	assert.Equal(t, LevelSafe, Classify(0, th))
	assert.Equal(t, LevelSafe, Classify(30, th))
	assert.Equal(t, LevelSuspicious, Classify(31, th))
	assert.Equal(t, LevelSuspicious, Classify(69, th))
	assert.Equal(t, LevelScam, Classify(70, th))
	assert.Equal(t, LevelScam, Classify(100, th))
}

func TestClassifyAgainstArbitraryThresholds(t *testing.T) {
	// scam iff score >= scam; suspicious iff suspicious <= score < scam
	for _, th := range []Thresholds{
		{Suspicious: 1, Scam: 2},
		{Suspicious: 31, Scam: 70},
		{Suspicious: 50, Scam: 99},
	} {
		require.NoError(t, th.Validate())
		for score := 0; score <= 100; score++ {
			got := Classify(score, th)
			switch {
			case score >= th.Scam:
				assert.Equal(t, LevelScam, got, "score=%d th=%+v", score, th)
			case score >= th.Suspicious:
				assert.Equal(t, LevelSuspicious, got, "score=%d th=%+v", score, th)
			default:
				assert.Equal(t, LevelSafe, got, "score=%d th=%+v", score, th)
			}
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Suspicious: 70, Scam: 70}.Validate())
	assert.Error(t, Thresholds{Suspicious: 80, Scam: 40}.Validate())
	assert.Error(t, Thresholds{Suspicious: -1, Scam: 50}.Validate())
	assert.Error(t, Thresholds{Suspicious: 10, Scam: 101}.Validate())
}

func TestScoreKeywordsEmpty(t *testing.T) {
	assert.Equal(t, 0, ScoreKeywords(nil))
	assert.Equal(t, 0, ScoreKeywords([]string{}))
}

func TestScoreKeywordsKnownWeights(t *testing.T) {
	assert.Equal(t, 30, ScoreKeywords([]string{"money"}))
	assert.Equal(t, 70, ScoreKeywords([]string{"money", "transfer"}))
	// unknown keywords fall back to the baseline weight
	assert.Equal(t, 25, ScoreKeywords([]string{"zebra"}))
	assert.Equal(t, 60, ScoreKeywords([]string{"urgent", "zebra"}))
}

func TestScoreKeywordsCappedAt100(t *testing.T) {
	got := ScoreKeywords([]string{"password", "otp", "verification_code"})
	assert.Equal(t, 100, got)
}

func TestScoreKeywordsMonotonic(t *testing.T) {
	// adding keywords never lowers the score
	sets := [][]string{
		{},
		{"money"},
		{"money", "urgent"},
		{"money", "urgent", "bitcoin"},
		{"money", "urgent", "bitcoin", "password"},
	}
	prev := 0
	for _, s := range sets {
		got := ScoreKeywords(s)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, 100)
		prev = got
	}
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, Describe(LevelScam), "HIGH RISK")
	assert.Contains(t, Describe(LevelSuspicious), "CAUTION")
	assert.Contains(t, Describe(LevelSafe), "PROTECTED")
}

func TestReset(t *testing.T) {
	r := Reset()
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, LevelSafe, r.Level)
	assert.Equal(t, 0, r.Confidence)
	assert.Equal(t, DefaultDescription, r.Description)
}
