package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionCustomIDRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		values []string
	}{
		{"pause", Action{Kind: ActionTogglePause}, nil},
		{"skip", Action{Kind: ActionSkip}, nil},
		{"stop", Action{Kind: ActionStop}, nil},
		{"voldown", Action{Kind: ActionVolumeDown}, nil},
		{"volup", Action{Kind: ActionVolumeUp}, nil},
		{"loop", Action{Kind: ActionToggleLoop}, nil},
		{"prev", Action{Kind: ActionPagePrev, Page: 3}, nil},
		{"next", Action{Kind: ActionPageNext, Page: 0}, nil},
		{"remove", Action{Kind: ActionRemoveAt, Page: 2, Index: 17}, []string{"17"}},
		{"select", Action{Kind: ActionSelectTrack, Token: "tok-1", Index: 4}, []string{"4"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAction(tc.action.CustomID(), tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.action, got)
		})
	}
}

func TestParseActionRejectsMalformedIDs(t *testing.T) {
	bad := []struct {
		name     string
		customID string
		values   []string
	}{
		{"empty", "", nil},
		{"unknown prefix", "mystery:pause", nil},
		{"panel extra part", "panel:pause:1", nil},
		{"panel unknown control", "panel:shuffle", nil},
		{"queue missing page", "queue:prev", nil},
		{"queue bad page", "queue:next:abc", nil},
		{"queue unknown control", "queue:page:0", nil},
		{"remove without value", "queue:remove:0", nil},
		{"remove bad value", "queue:remove:0", []string{"first"}},
		{"search extra part", "search:tok:extra", []string{"0"}},
		{"search without value", "search:tok", nil},
	}

	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAction(tc.customID, tc.values)
			assert.Error(t, err)
		})
	}
}

func TestUnknownKindHasNoCustomID(t *testing.T) {
	assert.Empty(t, Action{Kind: ActionUnknown}.CustomID())
}
