package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// OccurrenceID derives the stable id of the occurrence of defID starting at
// start: "{defID}_{start in epoch milliseconds}".
func OccurrenceID(defID string, start time.Time) string {
	return defID + "_" + strconv.FormatInt(start.UnixMilli(), 10)
}

// ParseOccurrenceID splits a derived occurrence id. ok is false when id
// carries no epoch suffix, in which case id itself is the definition id.
func ParseOccurrenceID(id string) (defID string, start time.Time, ok bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || !isEpoch(id[i+1:]) {
		return id, time.Time{}, false
	}
	ms, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return id, time.Time{}, false
	}
	return id[:i], time.UnixMilli(ms).UTC(), true
}

// ResolveDefinitionID strips the occurrence suffix from id, if any.
func ResolveDefinitionID(id string) string {
	defID, _, _ := ParseOccurrenceID(id)
	return defID
}

func isEpoch(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
