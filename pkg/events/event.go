package events

import (
	"fmt"
	"time"
)

// Type names what happened to a block.
type Type string

const (
	TypeCreate     Type = "create"
	TypeDelete     Type = "delete"
	TypeChange     Type = "change"
	TypeMove       Type = "move"
	TypeConnect    Type = "connect"
	TypeDisconnect Type = "disconnect"
	TypeBump       Type = "bump"
)

// Change elements carried by TypeChange events.
const (
	ElementField     = "field"
	ElementCollapsed = "collapsed"
	ElementDisabled  = "disabled"
)

// Event is one notification about a block. Fields that do not apply to the
// event type are left empty.
type Event struct {
	ID      string    `json:"id" bson:"_id"`
	Type    Type      `json:"type" bson:"type"`
	Group   string    `json:"group,omitempty" bson:"group,omitempty"`
	Time    time.Time `json:"time" bson:"time"`
	BlockID string    `json:"block_id" bson:"block_id"`

	// Change events.
	Element  string `json:"element,omitempty" bson:"element,omitempty"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	OldValue string `json:"old_value,omitempty" bson:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty" bson:"new_value,omitempty"`

	// Connect and disconnect events.
	ParentID  string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	InputName string `json:"input,omitempty" bson:"input,omitempty"`

	// Move and bump events.
	X  float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y  float64 `json:"y,omitempty" bson:"y,omitempty"`
	DX float64 `json:"dx,omitempty" bson:"dx,omitempty"`
	DY float64 `json:"dy,omitempty" bson:"dy,omitempty"`
}

// Change builds a TypeChange event.
func Change(blockID, element, name, oldValue, newValue string) Event {
	return Event{Type: TypeChange, BlockID: blockID, Element: element, Name: name, OldValue: oldValue, NewValue: newValue}
}

func (e Event) String() string {
	switch e.Type {
	case TypeChange:
		return fmt.Sprintf("%s %s %s.%s %q -> %q", e.Type, e.BlockID, e.Element, e.Name, e.OldValue, e.NewValue)
	case TypeConnect, TypeDisconnect:
		return fmt.Sprintf("%s %s parent=%s input=%s", e.Type, e.BlockID, e.ParentID, e.InputName)
	case TypeMove, TypeBump:
		return fmt.Sprintf("%s %s by (%g, %g)", e.Type, e.BlockID, e.DX, e.DY)
	}
	return fmt.Sprintf("%s %s", e.Type, e.BlockID)
}
