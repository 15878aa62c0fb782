package firewall

import (
	"context"
	"fmt"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// RulesetSource supplies the active textual ruleset when a caller does not
// provide one. The network collector implements it.
type RulesetSource interface {
	ActiveRuleset(ctx context.Context) string
}

// Detector classifies conflicts between a proposed rule and the active
// ruleset.
type Detector struct {
	source RulesetSource
	logger *logger.Logger
}

// NewDetector creates a conflict detector. source may be nil when callers
// always supply a ruleset.
func NewDetector(source RulesetSource, log *logger.Logger) *Detector {
	return &Detector{source: source, logger: log}
}

// DetectConflicts checks proposedRule against every rule of activeRuleset.
// When activeRuleset is empty, the active ruleset is fetched from the
// detector's source.
func (d *Detector) DetectConflicts(ctx context.Context, proposedRule, activeRuleset string) *ConflictReport {
	report := &ConflictReport{
		ProposedRule:    proposedRule,
		Conflicts:       []Conflict{},
		Recommendations: []string{},
	}

	proposed := ParseRule(proposedRule)
	if proposed == nil {
		report.Recommendations = append(report.Recommendations, "Could not parse proposed rule")
		return report
	}

	if activeRuleset == "" && d.source != nil {
		activeRuleset = d.source.ActiveRuleset(ctx)
	}

	for _, existing := range WalkRuleset(activeRuleset) {
		conflictType, explanation, ok := classify(proposed, existing)
		if !ok {
			continue
		}
		report.Conflicts = append(report.Conflicts, Conflict{
			Type:         conflictType,
			ExistingRule: existing.Raw,
			Explanation:  explanation,
		})
	}

	report.HasConflicts = len(report.Conflicts) > 0
	report.Recommendations = append(report.Recommendations, recommendations(report.Conflicts)...)

	if d.logger != nil && report.HasConflicts {
		d.logger.Debug("Conflicts detected",
			"proposed", proposedRule,
			"count", len(report.Conflicts),
		)
	}

	return report
}

// classify determines the conflict relationship between a proposed rule and
// one existing rule. ok is false when the rules cannot match the same
// traffic and no conflict exists.
func classify(proposed, existing *ParsedRule) (conflictType, explanation string, ok bool) {
	if !RulesOverlap(proposed, existing) {
		return "", "", false
	}

	// Opposite verdicts on overlapping traffic.
	if proposed.Action != "" && existing.Action != "" {
		proposedAccepts := proposed.Action == constants.ActionAccept
		proposedDenies := denies(proposed.Action)
		existingAccepts := existing.Action == constants.ActionAccept
		existingDenies := denies(existing.Action)

		if (proposedAccepts && existingDenies) || (proposedDenies && existingAccepts) {
			return constants.ConflictContradiction,
				fmt.Sprintf("Opposite actions: proposed=%s, existing=%s", proposed.Action, existing.Action),
				true
		}
	}

	// A broader existing rule evaluates first and swallows the traffic
	// before the proposed rule is ever reached, whatever its verdict.
	if existing.Specificity() < proposed.Specificity() {
		return constants.ConflictShadow,
			"Proposed rule may be shadowed by less specific existing rule",
			true
	}

	// Same match, same verdict.
	if proposed.Action == existing.Action {
		return constants.ConflictRedundant,
			"Proposed rule duplicates existing rule functionality",
			true
	}

	return constants.ConflictOverlap, "Rules have overlapping match criteria", true
}

func denies(action string) bool {
	return action == constants.ActionDrop || action == constants.ActionReject
}

// recommendations derives advisory text from the set of conflict kinds seen.
func recommendations(conflicts []Conflict) []string {
	if len(conflicts) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		seen[c.Type] = true
	}

	var recs []string
	if seen[constants.ConflictContradiction] {
		recs = append(recs, "Review rule logic - contradicting rules may cause unexpected behavior")
	}
	if seen[constants.ConflictShadow] {
		recs = append(recs, "Consider rule ordering or make the proposed rule more specific")
	}
	if seen[constants.ConflictRedundant] {
		recs = append(recs, "This rule may be unnecessary - consider removing if truly redundant")
	}
	if seen[constants.ConflictOverlap] {
		recs = append(recs, "Verify intended behavior for overlapping traffic")
	}
	return recs
}
