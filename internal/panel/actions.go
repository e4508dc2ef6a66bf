package panel

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates every control a user can trigger from a panel or
// queue view. Component callbacks are not objects with behavior; they
// decode to one of these and are dispatched through a single handler.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionTogglePause
	ActionSkip
	ActionStop
	ActionVolumeDown
	ActionVolumeUp
	ActionToggleLoop
	ActionPagePrev
	ActionPageNext
	ActionRemoveAt
	ActionSelectTrack
)

// Action is a decoded user activation. Page carries the queue-browser page
// the control was rendered for; Index is a 1-based absolute queue position
// (RemoveAt) or a search-result index (SelectTrack); Token identifies a
// cached search session.
type Action struct {
	Kind  ActionKind
	Page  int
	Index int
	Token string
}

const (
	panelPrefix  = "panel"
	queuePrefix  = "queue"
	searchPrefix = "search"
)

// CustomID encodes the action into a component custom ID. Select-menu
// kinds (RemoveAt, SelectTrack) encode the selection in the menu value,
// so their custom IDs carry only the dispatch context.
func (a Action) CustomID() string {
	switch a.Kind {
	case ActionTogglePause:
		return panelPrefix + ":pause"
	case ActionSkip:
		return panelPrefix + ":skip"
	case ActionStop:
		return panelPrefix + ":stop"
	case ActionVolumeDown:
		return panelPrefix + ":voldown"
	case ActionVolumeUp:
		return panelPrefix + ":volup"
	case ActionToggleLoop:
		return panelPrefix + ":loop"
	case ActionPagePrev:
		return fmt.Sprintf("%s:prev:%d", queuePrefix, a.Page)
	case ActionPageNext:
		return fmt.Sprintf("%s:next:%d", queuePrefix, a.Page)
	case ActionRemoveAt:
		return fmt.Sprintf("%s:remove:%d", queuePrefix, a.Page)
	case ActionSelectTrack:
		return fmt.Sprintf("%s:%s", searchPrefix, a.Token)
	default:
		return ""
	}
}

// ParseAction decodes a component custom ID plus any select-menu values
// back into an Action.
func ParseAction(customID string, values []string) (Action, error) {
	parts := strings.Split(customID, ":")

	switch parts[0] {
	case panelPrefix:
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("malformed panel control id %q", customID)
		}
		kinds := map[string]ActionKind{
			"pause":   ActionTogglePause,
			"skip":    ActionSkip,
			"stop":    ActionStop,
			"voldown": ActionVolumeDown,
			"volup":   ActionVolumeUp,
			"loop":    ActionToggleLoop,
		}
		kind, ok := kinds[parts[1]]
		if !ok {
			return Action{}, fmt.Errorf("unknown panel control %q", parts[1])
		}
		return Action{Kind: kind}, nil

	case queuePrefix:
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("malformed queue control id %q", customID)
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return Action{}, fmt.Errorf("bad page in %q: %w", customID, err)
		}
		switch parts[1] {
		case "prev":
			return Action{Kind: ActionPagePrev, Page: page}, nil
		case "next":
			return Action{Kind: ActionPageNext, Page: page}, nil
		case "remove":
			index, err := selectedIndex(values)
			if err != nil {
				return Action{}, err
			}
			return Action{Kind: ActionRemoveAt, Page: page, Index: index}, nil
		}
		return Action{}, fmt.Errorf("unknown queue control %q", parts[1])

	case searchPrefix:
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("malformed search id %q", customID)
		}
		index, err := selectedIndex(values)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionSelectTrack, Token: parts[1], Index: index}, nil
	}

	return Action{}, fmt.Errorf("unknown component id %q", customID)
}

func selectedIndex(values []string) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("selection carries no value")
	}
	index, err := strconv.Atoi(values[0])
	if err != nil {
		return 0, fmt.Errorf("bad selection value %q: %w", values[0], err)
	}
	return index, nil
}
