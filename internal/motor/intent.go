// internal/motor/intent.go
package motor

import (
	"time"

	"github.com/google/uuid"
)

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ClickIntent is the unit of work submitted to the sequencer: where to
// click, whether to wrap the press in a held modifier key, and a free-text
// tag carried through to diagnostics and tap records.
type ClickIntent struct {
	Target       ScreenPoint
	Button       Button
	HoldModifier bool
	Tag          string
}

// TapKind distinguishes the phases of a synthetic input in tap records.
type TapKind string

const (
	TapPress   TapKind = "press"
	TapRelease TapKind = "release"
	TapClick   TapKind = "click"
)

// TapEvent is an immutable record emitted once per committed synthetic
// input. Write-once; consumers must not retain mutable references into it.
type TapEvent struct {
	Time      time.Time `json:"ts"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Kind      TapKind   `json:"kind"`
	Button    Button    `json:"button"`
	Modifier  bool      `json:"modifier,omitempty"`
	SessionID uuid.UUID `json:"session"`
	Tag       string    `json:"tag,omitempty"`

	// Optional game context attached by callers that know it.
	Context *TapContext `json:"context,omitempty"`
}

// TapContext carries optional game-side fields for a tap.
type TapContext struct {
	WorldX   int    `json:"worldX,omitempty"`
	WorldY   int    `json:"worldY,omitempty"`
	SceneX   int    `json:"sceneX,omitempty"`
	SceneY   int    `json:"sceneY,omitempty"`
	WidgetID int    `json:"widgetId,omitempty"`
	MenuText string `json:"menuText,omitempty"`
	Consumed bool   `json:"consumed,omitempty"`
}
