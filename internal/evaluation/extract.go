package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"resume-match/internal/shared/util"
)

const excerptLength = 200

// Result is a validated model judgment.
type Result struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Extract recovers a Result from raw model output in two phases.
//
// The candidate phase takes the span from the first '{' to the last '}'. It
// tolerates prose or code fences around the object but is not quote-aware, so
// unrelated braces before or after the real object produce a bad candidate.
// The strict phase parses the candidate as a JSON object and validates it.
func Extract(raw string) (Result, error) {
	candidate, ok := candidateSpan(raw)
	if !ok {
		return Result{}, &MalformedOutputError{Reason: "no JSON object found", Raw: util.Prefix(raw, excerptLength)}
	}
	return parseCandidate(candidate, raw)
}

func candidateSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseCandidate(candidate, raw string) (Result, error) {
	malformed := func(reason string, err error) error {
		return &MalformedOutputError{
			Reason:    reason,
			Candidate: util.Prefix(candidate, excerptLength),
			Raw:       util.Prefix(raw, excerptLength),
			Err:       err,
		}
	}

	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Result{}, malformed("invalid JSON", err)
	}
	if dec.More() || hasTrailingData(dec) {
		return Result{}, malformed("invalid JSON", fmt.Errorf("unexpected data after JSON object"))
	}

	num, scoreOK := fields["score"].(json.Number)
	reason, reasonOK := fields["reason"].(string)
	if !scoreOK || !reasonOK {
		return Result{}, malformed("missing or mistyped score/reason", nil)
	}

	f, err := num.Float64()
	if err != nil {
		return Result{}, malformed("missing or mistyped score/reason", err)
	}
	if f != math.Trunc(f) {
		return Result{}, malformed("score is not an integer", nil)
	}
	if f < 0 || f > 100 {
		return Result{}, malformed("score out of range", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return Result{}, malformed("reason is empty", nil)
	}
	return Result{Score: int(f), Reason: reason}, nil
}

func hasTrailingData(dec *json.Decoder) bool {
	var rest bytes.Buffer
	_, _ = rest.ReadFrom(dec.Buffered())
	return strings.TrimSpace(rest.String()) != ""
}
