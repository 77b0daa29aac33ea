package attendance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is a normalized attendance status. Only the three recognized
// values ever reach the aggregations; everything else upstream sends
// (unexpected casing, vocabulary like "excused", empty strings) becomes
// StatusUnknown and is treated as absent wherever a default applies.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusUnknown Status = ""
)

// NormalizeStatus maps free-form status text from the records source to
// one of the recognized statuses, or StatusUnknown.
func NormalizeStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPresent:
		return StatusPresent
	case StatusLate:
		return StatusLate
	case StatusAbsent:
		return StatusAbsent
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	return string(s)
}

// MarshalJSON renders StatusUnknown as null, so dashboard clients can
// tell "recorded with unusable status" apart from a real status.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StatusUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

// Record (DB level type) is one attendance check-in as stored by the
// records service: a trainee, a moment in time, and whatever status
// text the check-in source supplied. Status stays raw here and is
// normalized at aggregation time.
type Record struct {
	ID        int       `json:"id"`
	TraineeID int       `json:"traineeId"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
}

// UnmarshalJSON accepts timestamps in any of the forms the check-in
// sources send: RFC3339, a plain YYYY-MM-DD date, or a unix timestamp
// in seconds or milliseconds (quoted or as a bare JSON number).
func (r *Record) UnmarshalJSON(data []byte) error {
	type recordAlias Record
	aux := struct {
		*recordAlias
		Timestamp json.RawMessage `json:"timestamp"`
	}{recordAlias: (*recordAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	rawTs := strings.Trim(string(aux.Timestamp), `"`)
	if rawTs == "" || rawTs == "null" {
		return nil
	}
	ts, ok := ParseTimestamp(rawTs)
	if !ok {
		return fmt.Errorf("unrecognized timestamp: %s", rawTs)
	}
	r.Timestamp = ts
	return nil
}

// DayRecord is one day's entry in the dense attendance map.
type DayRecord struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// AttendanceMap maps every relevant calendar day to its attendance
// entry. Built once per input snapshot and read-only after that;
// rebuild instead of mutating when the inputs change.
type AttendanceMap map[DayKey]DayRecord
