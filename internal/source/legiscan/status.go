package legiscan

import (
	"strings"

	"legispulse/internal/domain"
)

// numeric LegiScan status codes, used only when the textual description
// yields no match. 1=Introduced 2=Engrossed/Committee 3=Passed Chamber
// 4=Crossover 5=Passed 6=Vetoed 7=Failed.
var statusByCode = map[int]domain.Status{
	1: domain.StatusIntroduced,
	2: domain.StatusInCommittee,
	3: domain.StatusPassedThirdReading,
	4: domain.StatusSentToOtherChamber,
	5: domain.StatusPassedBothChambers,
	6: domain.StatusVetoed,
	7: domain.StatusDead,
}

// NormalizeStatus maps an upstream status code and free-text description to
// the internal status enumeration. Textual rules run first because the
// description is more current and specific than the coarse numeric code;
// the code is the safety net when no rule matches.
func NormalizeStatus(code int, desc string) domain.Status {
	d := strings.ToLower(desc)

	if d != "" {
		switch {
		case containsAny(d, "signed", "enacted", "approved"):
			return domain.StatusSigned
		case strings.Contains(d, "veto"):
			return domain.StatusVetoed
		case containsAny(d, "fail", "dead", "died in"):
			return domain.StatusDead
		case strings.Contains(d, "governor") && !strings.Contains(d, "approved by"):
			return domain.StatusSentToGovernor
		case strings.Contains(d, "passed") && strings.Contains(d, "both"):
			return domain.StatusPassedBothChambers
		case strings.Contains(d, "third") && strings.Contains(d, "read"):
			return domain.StatusPassedThirdReading
		case strings.Contains(d, "second") && strings.Contains(d, "read"):
			return domain.StatusPassedSecondReading
		case strings.Contains(d, "first") && strings.Contains(d, "read"):
			return domain.StatusPassedFirstReading
		case crossedOver(d):
			return domain.StatusSentToOtherChamber
		case inCommittee(d):
			return domain.StatusInCommittee
		}
	}

	if s, ok := statusByCode[code]; ok {
		return s
	}
	return domain.StatusIntroduced
}

// crossedOver matches transfers to the opposite chamber. "Referred to" with a
// chamber name only counts when no committee is involved; committee referrals
// like "Referred to House Judiciary Committee" are committee assignments.
func crossedOver(d string) bool {
	if containsAny(d, "crossover", "sent to", "other chamber") {
		return true
	}
	return strings.Contains(d, "referred to") &&
		containsAny(d, "house", "senate") &&
		!containsAny(d, "committee", "subcommittee")
}

func inCommittee(d string) bool {
	if containsAny(d, "assigned to", "referred to") {
		return true
	}
	return containsAny(d, "committee", "subcommittee") && !strings.Contains(d, "passed")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
