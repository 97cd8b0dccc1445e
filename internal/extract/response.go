package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Extractor turns a JPEG screenshot into a loosely structured time-entry list.
type Extractor interface {
	Extract(ctx context.Context, jpeg []byte) (Response, error)
}

// Candidate is one clock-in/clock-out pair as reported by the AI service.
// Either field may be empty when the service omitted it or sent a non-string.
type Candidate struct {
	ClockIn  string `json:"clockIn"`
	ClockOut string `json:"clockOut"`
}

// UnmarshalJSON accepts any JSON value. Only string fields of an object are
// kept; everything else decodes to an empty candidate.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	*c = Candidate{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	c.ClockIn = rawString(raw["clockIn"])
	c.ClockOut = rawString(raw["clockOut"])
	return nil
}

// Response is the payload of the extraction endpoint.
type Response struct {
	TimeEntries        []Candidate `json:"timeEntries"`
	IsCurrentlyWorking bool        `json:"isCurrentlyWorking"`
	LastClockIn        string      `json:"lastClockIn,omitempty"`
	Analysis           string      `json:"analysis"`
	Error              string      `json:"error,omitempty"`
}

// UnmarshalJSON decodes a response without failing on oddly shaped fields.
// The body itself must still be a JSON object.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Response{
		LastClockIn: rawString(raw["lastClockIn"]),
		Analysis:    rawString(raw["analysis"]),
		Error:       rawString(raw["error"]),
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw["timeEntries"], &list); err == nil {
		r.TimeEntries = make([]Candidate, len(list))
		for i, item := range list {
			_ = r.TimeEntries[i].UnmarshalJSON(item)
		}
	}

	var working bool
	if err := json.Unmarshal(raw["isCurrentlyWorking"], &working); err == nil {
		r.IsCurrentlyWorking = working
	} else {
		r.IsCurrentlyWorking = strings.EqualFold(rawString(raw["isCurrentlyWorking"]), "true")
	}
	return nil
}

func rawString(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

// UpstreamError is a failed round trip to the AI service. It is reported once
// and never retried.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("ai extraction: http %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("ai extraction: http %d", e.StatusCode)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("ai extraction: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("ai extraction: %v", e.Err)
	}
	return "ai extraction: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
