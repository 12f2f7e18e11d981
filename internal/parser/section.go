package parser

import "strings"

// SectionState tracks where the scanner is within a credit card statement's text.
type SectionState int

const (
	Outside SectionState = iota
	InSection
	InPurchasesSubsection
)

func (s SectionState) String() string {
	switch s {
	case Outside:
		return "outside"
	case InSection:
		return "in_section"
	case InPurchasesSubsection:
		return "in_purchases"
	default:
		return "unknown"
	}
}

// LineAction tells the scanner what to do with a line after the state machine has seen it.
type LineAction int

const (
	// Skip means the line is a header, summary or lies outside the transaction section.
	Skip LineAction = iota
	// Candidate means the line may hold a transaction and should be classified.
	Candidate
)

// Markers are matched against the upper-cased line
var (
	sectionStartMarkers = []string{"ACCOUNT ACTIVITY", "TRANSACTIONS"}
	sectionEndMarkers   = []string{"TOTAL FEES CHARGED", "TOTAL INTEREST CHARGED"} // also covers "... FOR THIS PERIOD"
)

const (
	subsectionStartMarker = "PURCHASES AND ADJUSTMENTS"
	subsectionEndPrefix   = "TOTAL PURCHASES"
	summaryPrefix         = "TOTAL "
)

type transition struct {
	name  string
	from  []SectionState
	match func(upper string) bool
	to    SectionState
	keep  bool // stay in the current state
}

// transitions are evaluated in order; the first whose source state and predicate match wins
// and the line is skipped. A line no rule claims is a candidate.
var transitions = []transition{
	{
		name:  "section_end",
		from:  []SectionState{Outside, InSection, InPurchasesSubsection},
		match: containsAny(sectionEndMarkers),
		to:    Outside,
	},
	{
		name:  "subsection_end",
		from:  []SectionState{InPurchasesSubsection},
		match: hasPrefix(subsectionEndPrefix),
		to:    InSection,
	},
	{
		name:  "subsection_start",
		from:  []SectionState{InSection, InPurchasesSubsection},
		match: containsAny([]string{subsectionStartMarker}),
		to:    InPurchasesSubsection,
	},
	{
		name:  "section_start",
		from:  []SectionState{Outside},
		match: containsAny(sectionStartMarkers),
		to:    InSection,
	},
	{
		name:  "section_header",
		from:  []SectionState{InSection, InPurchasesSubsection},
		match: containsAny(sectionStartMarkers),
		keep:  true,
	},
	{
		name:  "summary",
		from:  []SectionState{InSection, InPurchasesSubsection},
		match: hasPrefix(summaryPrefix),
		keep:  true,
	},
	{
		name:  "outside",
		from:  []SectionState{Outside},
		match: func(string) bool { return true },
		keep:  true,
	},
}

// SectionMachine is the section-aware line filter used by the PDF parser.
type SectionMachine struct {
	state SectionState
	// OnTransition, if set, is called whenever the state changes.
	OnTransition func(rule string, from, to SectionState, line string)
}

// State returns the current state
func (m *SectionMachine) State() SectionState {
	return m.state
}

// Step feeds one trimmed line through the transition table.
func (m *SectionMachine) Step(line string) LineAction {
	upper := strings.ToUpper(line)
	for _, t := range transitions {
		if !t.applies(m.state) || !t.match(upper) {
			continue
		}
		if !t.keep && t.to != m.state {
			from := m.state
			m.state = t.to
			if m.OnTransition != nil {
				m.OnTransition(t.name, from, t.to, line)
			}
		}
		return Skip
	}
	return Candidate
}

func (t transition) applies(s SectionState) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

func containsAny(markers []string) func(string) bool {
	return func(upper string) bool {
		for _, marker := range markers {
			if strings.Contains(upper, marker) {
				return true
			}
		}
		return false
	}
}

func hasPrefix(prefix string) func(string) bool {
	return func(upper string) bool {
		return strings.HasPrefix(upper, prefix)
	}
}
