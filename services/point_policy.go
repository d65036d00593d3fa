package services

import (
	"maps"
	"strings"
)

// Action types known to the default point table.
const (
	ActionSubmitApplication      = "submit_application"
	ActionClickedApply           = "clicked_apply"
	ActionOpenedPhishingLink     = "opened_phishing_link"
	ActionSubmittedSensitiveInfo = "submitted_sensitive_info"
	ActionViewedOpportunity      = "viewed_opportunity"
	ActionReportedPhish          = "reported_phish"
	ActionUsedReportButton       = "used_report_button"
	ActionIgnoredEmail           = "ignored_email"
	ActionClosedPageQuickly      = "closed_page_quickly"
)

var defaultPoints = map[string]int{
	ActionSubmitApplication:      -10,
	ActionClickedApply:           -5,
	ActionOpenedPhishingLink:     -50,
	ActionSubmittedSensitiveInfo: -100, // 10× a plain click
	ActionViewedOpportunity:      0,
	ActionReportedPhish:          80,
	ActionUsedReportButton:       30,
	ActionIgnoredEmail:           20,
	ActionClosedPageQuickly:      10,
}

// PointPolicy maps action types to signed point values. The zero value
// scores every action as 0. A policy is never mutated after construction;
// With returns a new policy.
type PointPolicy struct {
	points map[string]int
}

// DefaultPointPolicy returns the deployed point table.
func DefaultPointPolicy() PointPolicy {
	return NewPointPolicy(defaultPoints)
}

// NewPointPolicy copies table into a new policy.
func NewPointPolicy(table map[string]int) PointPolicy {
	return PointPolicy{points: maps.Clone(table)}
}

// With returns a copy of p with overrides applied. Blank keys are ignored.
func (p PointPolicy) With(overrides map[string]int) PointPolicy {
	next := maps.Clone(p.points)
	if next == nil {
		next = make(map[string]int, len(overrides))
	}
	for actionType, points := range overrides {
		actionType = strings.TrimSpace(actionType)
		if actionType == "" {
			continue
		}
		next[actionType] = points
	}
	return PointPolicy{points: next}
}

// PointsFor resolves the point value for actionType. Unknown types score 0.
func (p PointPolicy) PointsFor(actionType string) int {
	return p.points[actionType]
}

// Known reports whether actionType has an explicit table entry.
func (p PointPolicy) Known(actionType string) bool {
	_, ok := p.points[actionType]
	return ok
}

// Table returns a copy of the point table.
func (p PointPolicy) Table() map[string]int {
	out := maps.Clone(p.points)
	if out == nil {
		out = map[string]int{}
	}
	return out
}
