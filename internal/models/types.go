package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as a JSON text column so the same schema
// works on sqlite, mysql and postgres.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// RoadmapWeek is one week of a project plan.
type RoadmapWeek struct {
	Week         int      `json:"week"`
	Title        string   `json:"title"`
	Tasks        []string `json:"tasks"`
	Resources    []string `json:"resources,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// Roadmap is the ordered list of weeks, stored as JSON text.
type Roadmap []RoadmapWeek

func (r Roadmap) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]RoadmapWeek(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Roadmap) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// TotalTasks counts the tasks across every week.
func (r Roadmap) TotalTasks() int {
	n := 0
	for _, w := range r {
		n += len(w.Tasks)
	}
	return n
}

func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
