package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawReport is the carrier's usage report as returned by the query endpoint.
// Every collection is optional.
type RawReport struct {
	PackageName string     `json:"packageName"`
	Shared      []RawGroup `json:"shareData"`
	Owned       []RawGroup `json:"resources"`
	PublicFree  []RawGroup `json:"freeFlowList"`
}

// RawGroup is one section of the report holding package details.
type RawGroup struct {
	Name    string      `json:"name"`
	Details []RawDetail `json:"details"`
}

// RawDetail is a single allowance record inside a group.
type RawDetail struct {
	Name         string        `json:"feePolicyName"`
	FlowType     string        `json:"flowType"`
	ResourceType string        `json:"resourceType"`
	Total        Amount        `json:"total"`
	Used         Amount        `json:"use"`
	Remain       Amount        `json:"remain"`
	EndDate      string        `json:"endDate"`
	ViceCards    []RawViceCard `json:"viceCardlist"`
}

// RawViceCard is the per-number usage of a shared allowance.
type RawViceCard struct {
	Number       string `json:"usernumber"`
	Used         Amount `json:"use"`
	CurrentLogin Flag   `json:"currentLoginFlag"`
	MainCard     Flag   `json:"isMainCard"`
}

// Amount is a megabyte value that tolerates numbers, numeric strings,
// empty strings and null. Anything unparseable decodes to 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*a = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(v)
	return nil
}

// Float returns the amount as float64.
func (a Amount) Float() float64 { return float64(a) }

// Flag is a boolean that also accepts "1"/"0", "Y"/"N" and "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true":
		*f = true
	default:
		*f = false
	}
	return nil
}
