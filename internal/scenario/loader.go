package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"scamshield/internal/types"
)

// Load reads a scenario catalog from a spreadsheet, one message per row,
// grouped by scenario id. Column positions are detected from the header by
// name heuristics so exported sheets with reordered columns still load.
func Load(path string) ([]types.Scenario, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	idIdx, titleIdx, langIdx, speakerIdx, textIdx, riskIdx, tsIdx, analysisIdx := -1, -1, -1, -1, -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "scenario") || l == "id":
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "title"):
			titleIdx = i
		case strings.Contains(l, "lang"):
			langIdx = i
		case strings.Contains(l, "speaker"):
			speakerIdx = i
		case strings.Contains(l, "text") || strings.Contains(l, "message"):
			if textIdx == -1 {
				textIdx = i
			}
		case strings.Contains(l, "risk"):
			riskIdx = i
		case strings.Contains(l, "timestamp") || strings.Contains(l, "offset"):
			tsIdx = i
		case strings.Contains(l, "analysis") || strings.Contains(l, "note"):
			analysisIdx = i
		}
	}
	if idIdx == -1 || textIdx == -1 {
		return nil, fmt.Errorf("missing scenario or text column")
	}

	byID := map[string]*types.Scenario{}
	var order []string
	for i, r := range rows {
		if i == 0 {
			continue
		}
		id := cell(r, idIdx)
		text := cell(r, textIdx)
		if id == "" || text == "" {
			// skip incomplete rows quietly
			continue
		}
		sc, ok := byID[id]
		if !ok {
			sc = &types.Scenario{ID: id, Title: cell(r, titleIdx), Language: cell(r, langIdx)}
			if sc.Language == "" {
				sc.Language = "en"
			}
			byID[id] = sc
			order = append(order, id)
		}
		seg := types.Segment{
			Speaker:  speakerFromCell(cell(r, speakerIdx)),
			Text:     text,
			Analysis: cell(r, analysisIdx),
		}
		if riskIdx >= 0 {
			seg.Risk, _ = strconv.Atoi(strings.TrimSpace(cell(r, riskIdx)))
		}
		if tsIdx >= 0 {
			seg.TimestampMs, _ = strconv.ParseInt(strings.TrimSpace(cell(r, tsIdx)), 10, 64)
		}
		sc.Messages = append(sc.Messages, seg)
	}

	var out []types.Scenario
	for _, id := range order {
		sc := byID[id]
		sort.SliceStable(sc.Messages, func(a, b int) bool {
			return sc.Messages[a].TimestampMs < sc.Messages[b].TimestampMs
		})
		for _, m := range sc.Messages {
			if m.Risk > sc.MaxRisk {
				sc.MaxRisk = m.Risk
			}
		}
		if n := len(sc.Messages); n > 0 {
			sc.DurationMs = sc.Messages[n-1].TimestampMs + 2000
		}
		out = append(out, *sc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable scenarios")
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func speakerFromCell(v string) types.Speaker {
	if strings.EqualFold(v, string(types.SpeakerUser)) {
		return types.SpeakerUser
	}
	return types.SpeakerCaller
}
