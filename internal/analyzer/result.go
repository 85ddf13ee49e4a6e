package analyzer

// Result is the raw payload returned by the analyzer's /analyze endpoint.
// Fields are optional on the wire; zero values are handled by Normalize.
type Result struct {
	RiskScore       float64          `json:"risk_score"`
	RiskLabel       string           `json:"risk_label,omitempty"`
	Transcript      []TranscriptRow  `json:"transcript,omitempty"`
	Spoof           *SpoofResult     `json:"spoof,omitempty"`
	FlaggedSegments []FlaggedSegment `json:"flagged_segments,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// TranscriptRow is one diarized utterance from the analyzer.
type TranscriptRow struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"` // seconds from chunk start
}

// SpoofResult carries the voice liveness verdict.
type SpoofResult struct {
	BonafideProb float64 `json:"bonafide_prob"`
}

// FlaggedSegment is a span of transcript text the analyzer flagged,
// with the keywords that triggered the flag.
type FlaggedSegment struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

// UploadResponse is returned by /upload.
type UploadResponse struct {
	FileID string `json:"file_id"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}
