package legiscan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSponsorList_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array of objects", `[{"name":"Rep. A"},{"name":"Rep. B"}]`, []string{"Rep. A", "Rep. B"}},
		{"single object", `{"name":"Rep. A"}`, []string{"Rep. A"}},
		{"null", `null`, nil},
		{"empty array", `[]`, []string{}},
		{"skips blank names", `[{"name":"Rep. A"},{"name":"  "},{"name":""}]`, []string{"Rep. A"}},
		{"trims whitespace", `[{"name":"  Rep. A  "}]`, []string{"Rep. A"}},
		{"malformed entries skipped", `[{"name":"Rep. A"},42,{"name":"Rep. B"}]`, []string{"Rep. A", "Rep. B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list SponsorList
			err := json.Unmarshal([]byte(tt.input), &list)
			require.NoError(t, err)

			got := list.Names()
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSponsorList_UnmarshalNeverFailsDecode(t *testing.T) {
	// A garbage sponsors field must not sink the whole bill payload.
	var payload struct {
		BillNumber string      `json:"bill_number"`
		Sponsors   SponsorList `json:"sponsors"`
	}
	err := json.Unmarshal([]byte(`{"bill_number":"HB 1","sponsors":"not-a-list"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "HB 1", payload.BillNumber)
	assert.Empty(t, payload.Sponsors.Names())
}

func TestSplitSponsors(t *testing.T) {
	primary, coSponsors := SplitSponsors([]string{"Rep. A", "Rep. B", "Rep. C"})
	assert.Equal(t, "Rep. A", primary)
	assert.Equal(t, []string{"Rep. B", "Rep. C"}, coSponsors)

	primary, coSponsors = SplitSponsors([]string{"Rep. A"})
	assert.Equal(t, "Rep. A", primary)
	assert.Empty(t, coSponsors)

	primary, coSponsors = SplitSponsors(nil)
	assert.Equal(t, "Unknown", primary)
	assert.Nil(t, coSponsors)
}

func TestSplitSponsors_Idempotent(t *testing.T) {
	names := []string{"Rep. A", "Rep. B"}

	p1, c1 := SplitSponsors(names)
	p2, c2 := SplitSponsors(names)

	assert.Equal(t, p1, p2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, []string{"Rep. A", "Rep. B"}, names)
}
