package legiscan

import (
	"encoding/json"
	"strings"
)

// Sponsor is one entry of an upstream sponsor payload.
type Sponsor struct {
	Name string `json:"name"`
}

// SponsorList tolerates the shapes LegiScan has been observed to return:
// an array of objects, a single object, or null.
type SponsorList []Sponsor

func (s *SponsorList) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		*s = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(b, &list); err != nil {
			*s = nil
			return nil
		}
		out := make(SponsorList, 0, len(list))
		for _, raw := range list {
			var sp Sponsor
			if err := json.Unmarshal(raw, &sp); err != nil {
				continue
			}
			out = append(out, sp)
		}
		*s = out
		return nil
	}

	var single Sponsor
	if err := json.Unmarshal(b, &single); err != nil {
		*s = nil
		return nil
	}
	*s = SponsorList{single}
	return nil
}

// Names returns the ordered non-empty sponsor names, primary first.
func (s SponsorList) Names() []string {
	names := make([]string, 0, len(s))
	for _, sp := range s {
		name := strings.TrimSpace(sp.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// SplitSponsors returns the primary sponsor ("Unknown" when the list is
// empty) and the co-sponsors (everyone after the primary).
func SplitSponsors(names []string) (primary string, coSponsors []string) {
	if len(names) == 0 {
		return "Unknown", nil
	}
	return names[0], names[1:]
}
