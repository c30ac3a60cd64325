package portal

import (
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// MenuItem is one option of a keypad menu.
type MenuItem struct {
	// Prompt introduces the option, e.g. "To search for a new flight".
	Prompt string
	Target domain.Vertex
}

// NewMenuState builds an Ask state offering the items on consecutive keys.
// KeyRepeat replays the menu; when exit is set, KeyExit leads to it.
// Items never take the repeat and exit keys.
func NewMenuState(id string, items []MenuItem, exit domain.Vertex) *domain.State {
	segments := make([]domain.Segment, 0, len(items)+2)
	keys := make([]int, 0, len(items))
	key := 0
	for _, item := range items {
		key++
		for key == domain.KeyRepeat || key == domain.KeyExit {
			key++
		}
		keys = append(keys, key)
		segments = append(segments, domain.Text("%s, press %d. ", item.Prompt, key))
	}
	segments = append(segments, domain.Text("To hear the options again, press %d.", domain.KeyRepeat))
	if exit != nil {
		segments = append(segments, domain.Text(" To end the call, press %d.", domain.KeyExit))
	}

	st := domain.NewState(id, domain.Ask(domain.DigitsGrammar(1), segments...))
	for i, item := range items {
		st.AddChoice(keys[i], item.Target)
	}
	st.AddChoice(domain.KeyRepeat, st)
	if exit != nil {
		st.AddChoice(domain.KeyExit, exit)
	}
	return st
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
