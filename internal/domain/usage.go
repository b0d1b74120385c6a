package domain

import "fmt"

// AIUsage is the caller's AI generation quota.
type AIUsage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// UsedPercent returns Used/Limit as a percentage clamped to [0, 100]. A zero
// limit counts as fully used.
func (u AIUsage) UsedPercent() float64 {
	if u.Limit <= 0 {
		return 100
	}
	p := float64(u.Used) / float64(u.Limit) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (u AIUsage) Exhausted() bool {
	return u.Remaining <= 0
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}
	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}
	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}
