package analyzer

import (
	"math"
	"strings"

	"scamshield/internal/risk"
	"scamshield/internal/types"
)

// Normalized is the engine-facing view of an analyzer result.
type Normalized struct {
	Score      int             `json:"score"`
	Level      risk.Level      `json:"level"`
	Confidence int             `json:"confidence"`
	Segments   []types.Segment `json:"segments"`
}

const pendingAnalysisNote = "Processed by AI analysis"

// Normalize converts a raw analyzer payload into leveled segments.
// Missing or malformed fields degrade to zero values; this feeds a live
// display and a partial result still renders.
func Normalize(res Result, thresholds risk.Thresholds) Normalized {
	out := Normalized{
		Score:    clampScore(int(math.Round(res.RiskScore * 100))),
		Segments: make([]types.Segment, 0, len(res.Transcript)),
	}

	for _, row := range res.Transcript {
		out.Segments = append(out.Segments, types.Segment{
			Speaker:     normalizeSpeaker(row.Speaker),
			Text:        row.Text,
			Risk:        0,
			TimestampMs: int64(row.Start * 1000),
			Analysis:    pendingAnalysisNote,
		})
	}

	// Attribute flagged spans back to transcript segments by substring
	// match. Best effort: duplicate text matches every occurrence.
	for i := range out.Segments {
		var keywords []string
		for _, flag := range res.FlaggedSegments {
			if flag.Text == "" || !strings.Contains(out.Segments[i].Text, flag.Text) {
				continue
			}
			keywords = appendUnique(keywords, flag.Keywords)
		}
		if len(keywords) > 0 {
			out.Segments[i].Risk = risk.ScoreKeywords(keywords)
			out.Segments[i].Analysis = "Flagged keywords: " + strings.Join(keywords, ", ")
		}
	}

	if res.Spoof != nil {
		out.Confidence = clampScore(int(math.Round((1 - res.Spoof.BonafideProb) * 100)))
	}
	out.Level = risk.Classify(out.Score, thresholds)
	return out
}

// MapRiskLabel folds the analyzer's free-text risk label onto a level.
func MapRiskLabel(label string) risk.Level {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "scam") || strings.Contains(l, "high"):
		return risk.LevelScam
	case strings.Contains(l, "suspicious") || strings.Contains(l, "medium"):
		return risk.LevelSuspicious
	default:
		return risk.LevelSafe
	}
}

func normalizeSpeaker(s string) types.Speaker {
	if strings.EqualFold(s, string(types.SpeakerUser)) {
		return types.SpeakerUser
	}
	return types.SpeakerCaller
}

func appendUnique(dst []string, src []string) []string {
	for _, kw := range src {
		seen := false
		for _, have := range dst {
			if have == kw {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, kw)
		}
	}
	return dst
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
