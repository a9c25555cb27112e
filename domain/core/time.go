package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseHMS converts an experiment clock string "HH:MM:SS" into elapsed hours.
// Hours may exceed 24 and seconds may carry a fraction.
func ParseHMS(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid experiment time %q: expected HH:MM:SS", s)
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hours in %q", s)
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil || sec < 0 || sec >= 60 || math.IsNaN(sec) {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}

	return float64(h) + float64(m)/60 + sec/3600, nil
}

// FormatHMS renders elapsed hours as "HH:MM:SS", rounding to the nearest second.
func FormatHMS(hours float64) string {
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return ""
	}
	total := int64(math.Round(hours * 3600))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
