package dispatch

import "sarahdemo/persona"

// Call-demo actions the page reacts to.
const (
	ActionShareScreen = "SHARE_SCREEN"
	ActionAddFeature  = "ADD_FEATURE"
	ActionShowPricing = "SHOW_PRICING"
)

type Feature struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type Pricing struct {
	Plan string `json:"plan"`
}

// Echo is the structured data tool handlers hand back to the page.
type Echo struct {
	BoardName string               `json:"boardName,omitempty"`
	BoardID   string               `json:"boardId,omitempty"`
	Items     []persona.StatusItem `json:"items,omitempty"`
	Cards     []persona.Card       `json:"cards,omitempty"`
	Action    string               `json:"action,omitempty"`
	Feature   *Feature             `json:"feature,omitempty"`
	Pricing   *Pricing             `json:"pricing,omitempty"`
}

// merge folds other into e. Scalars from other win when set; lists append.
func (e *Echo) merge(other Echo) {
	if other.BoardName != "" {
		e.BoardName = other.BoardName
	}
	if other.BoardID != "" {
		e.BoardID = other.BoardID
	}
	e.Items = append(e.Items, other.Items...)
	e.Cards = append(e.Cards, other.Cards...)
	if other.Action != "" {
		e.Action = other.Action
	}
	if other.Feature != nil {
		e.Feature = other.Feature
	}
	if other.Pricing != nil {
		e.Pricing = other.Pricing
	}
}
