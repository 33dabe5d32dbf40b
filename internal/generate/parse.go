package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gymtrack/internal/domain"
)

var errNoArray = errors.New("no JSON array found in model output")

// rawExercise decodes with float sets/reps so "3.5 sets" can be rejected
// explicitly instead of being truncated.
type rawExercise struct {
	Name string  `json:"name"`
	Sets float64 `json:"sets"`
	Reps float64 `json:"reps"`
}

// ParseExercises extracts the exercise array from a model reply. Models
// routinely wrap the requested JSON in prose or code fences; everything
// outside the first well-formed top-level array is discarded.
func ParseExercises(text string) ([]domain.Exercise, error) {
	cleaned := cleanModelText(text)

	arr, err := extractArray(cleaned)
	if err != nil {
		return nil, err
	}

	var raw []rawExercise
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil, fmt.Errorf("decode exercise array: %w", err)
	}

	exercises := make([]domain.Exercise, 0, len(raw))
	for i, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("exercise %d has an empty name", i)
		}
		sets, ok := asPositiveInt(r.Sets)
		if !ok {
			return nil, fmt.Errorf("exercise %q: sets must be a positive whole number", name)
		}
		reps, ok := asPositiveInt(r.Reps)
		if !ok {
			return nil, fmt.Errorf("exercise %q: reps must be a positive whole number", name)
		}
		exercises = append(exercises, domain.Exercise{Name: name, Sets: sets, Reps: reps})
	}

	if len(exercises) == 0 {
		return nil, errors.New("model returned an empty plan")
	}
	return exercises, nil
}

// cleanModelText strips the quirks observed in real replies: markdown code
// fences and the model's habit of writing "10 per leg" for reps.
func cleanModelText(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.ReplaceAll(text, "per leg", "")
	return text
}

// extractArray returns the first balanced top-level [...] in the text.
// Brackets inside JSON strings do not count toward the balance.
func extractArray(text string) (string, error) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", errNoArray
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errNoArray
}

func asPositiveInt(f float64) (int, bool) {
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
