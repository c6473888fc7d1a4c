package models

import "fmt"

// Typed per-kind payloads, resolved once from the open Extra map at read
// time. Display code works with these instead of probing map keys.

// SubjectGrade is a single row of a marksheet.
type SubjectGrade struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

// MarksheetDetails carries the academic fields of a marksheet certificate.
type MarksheetDetails struct {
	Program  string         `json:"program,omitempty"`
	Term     string         `json:"term,omitempty"`
	Subjects []SubjectGrade `json:"subjects,omitempty"`
}

// HackathonDetails carries hackathon award fields.
type HackathonDetails struct {
	Event     string `json:"event,omitempty"`
	Team      string `json:"team,omitempty"`
	Placement string `json:"placement,omitempty"`
}

// SportsDetails carries sports award fields.
type SportsDetails struct {
	Event    string `json:"event,omitempty"`
	Position string `json:"position,omitempty"`
}

// Details is the tagged union of kind-specific payloads. Exactly one pointer
// is non-nil for non-general kinds; all are nil for KindGeneral.
type Details struct {
	Marksheet *MarksheetDetails `json:"marksheet,omitempty"`
	Hackathon *HackathonDetails `json:"hackathon,omitempty"`
	Sports    *SportsDetails    `json:"sports,omitempty"`
}

// ResolveDetails interprets the certificate's Extra map according to its
// kind. Unknown keys are ignored; missing keys leave zero values. None of
// this data participates in the digest, so a lossy resolution cannot affect
// the trust verdict.
func ResolveDetails(c *Certificate) Details {
	switch c.Kind {
	case KindMarksheet:
		return Details{Marksheet: resolveMarksheet(c.Extra)}
	case KindHackathon:
		return Details{Hackathon: &HackathonDetails{
			Event:     stringValue(c.Extra, "event"),
			Team:      stringValue(c.Extra, "team"),
			Placement: stringValue(c.Extra, "placement"),
		}}
	case KindSports:
		return Details{Sports: &SportsDetails{
			Event:    stringValue(c.Extra, "event"),
			Position: stringValue(c.Extra, "position"),
		}}
	default:
		return Details{}
	}
}

func resolveMarksheet(extra map[string]any) *MarksheetDetails {
	details := &MarksheetDetails{
		Program: stringValue(extra, "program"),
		Term:    stringValue(extra, "term"),
	}
	raw, ok := extra["subjects"]
	if !ok {
		return details
	}
	rows, ok := raw.([]any)
	if !ok {
		return details
	}
	for _, row := range rows {
		entry, ok := row.(map[string]any)
		if !ok {
			continue
		}
		details.Subjects = append(details.Subjects, SubjectGrade{
			Subject: asString(entry["subject"]),
			Grade:   asString(entry["grade"]),
		})
	}
	return details
}

func stringValue(extra map[string]any, key string) string {
	if extra == nil {
		return ""
	}
	return asString(extra[key])
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
