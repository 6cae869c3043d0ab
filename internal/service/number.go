package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DCRNumber formats the base human-readable number for a branch and date:
// DCR/<branchCode>/<yyyy>/<mm>/<dd>.
func DCRNumber(branchCode string, date time.Time) string {
	return fmt.Sprintf("DCR/%s/%04d/%02d/%02d", branchCode, date.Year(), int(date.Month()), date.Day())
}

// NextDCRNumber derives the number for a new DCR given the highest number
// already stored for the same branch and date (nil when none). The first
// DCR gets the bare number, later ones a -<n> suffix. Deterministic: the
// sequence is recomputed from persisted state, never from a shared counter.
func NextDCRNumber(branchCode string, date time.Time, last *string) string {
	base := DCRNumber(branchCode, date)
	if last == nil || *last == "" {
		return base
	}
	suffix, ok := strings.CutPrefix(*last, base+"-")
	if !ok {
		return base + "-1"
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return base + "-1"
	}
	return fmt.Sprintf("%s-%d", base, seq+1)
}
