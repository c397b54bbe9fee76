package weekplan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mkovacev/runweek/internal/activities"
)

// DayKeys are the seven slot names of a weekly plan, in week order.
var DayKeys = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Slot is one day of a weekly plan. A day is either explicitly unset
// (a rest day, null on the wire) or holds a list of activity snapshots.
// Clients are allowed to send a bare activity object instead of a
// one-element list, the decoder normalizes that before anything else
// sees the value. The zero value is an empty, set slot.
type Slot struct {
	Unset bool
	Items []activities.Activity
}

func UnsetSlot() Slot {
	return Slot{Unset: true}
}

func SlotOf(items ...activities.Activity) Slot {
	return Slot{Items: items}
}

func (s Slot) IsEmpty() bool {
	return s.Unset || len(s.Items) == 0
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Slot{Unset: true}
		return nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var items []activities.Activity
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("unmarshal slot list: %w", err)
		}
		if items == nil {
			items = []activities.Activity{}
		}
		*s = Slot{Items: items}
		return nil
	}

	// a bare single activity, wrap it into a one-element list
	var item activities.Activity
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("unmarshal slot item: %w", err)
	}
	*s = Slot{Items: []activities.Activity{item}}
	return nil
}

func (s Slot) MarshalJSON() ([]byte, error) {
	if s.Unset {
		return []byte("null"), nil
	}
	if s.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Items)
}

// WeeklyPlan is the canonical seven-slot plan of a single user. Each
// write replaces all seven slots, there is no per-day patching. Day
// keys missing from an incoming payload decode to empty slots.
type WeeklyPlan struct {
	UserID string `json:"userId,omitempty"`
	Mon    Slot   `json:"Mon"`
	Tue    Slot   `json:"Tue"`
	Wed    Slot   `json:"Wed"`
	Thu    Slot   `json:"Thu"`
	Fri    Slot   `json:"Fri"`
	Sat    Slot   `json:"Sat"`
	Sun    Slot   `json:"Sun"`
}

func (p *WeeklyPlan) Day(key string) (Slot, error) {
	slot := p.daySlot(key)
	if slot == nil {
		return Slot{}, fmt.Errorf("unknown day key: %s", key)
	}
	return *slot, nil
}

func (p *WeeklyPlan) SetDay(key string, slot Slot) error {
	target := p.daySlot(key)
	if target == nil {
		return fmt.Errorf("unknown day key: %s", key)
	}
	*target = slot
	return nil
}

func (p *WeeklyPlan) daySlot(key string) *Slot {
	switch key {
	case "Mon":
		return &p.Mon
	case "Tue":
		return &p.Tue
	case "Wed":
		return &p.Wed
	case "Thu":
		return &p.Thu
	case "Fri":
		return &p.Fri
	case "Sat":
		return &p.Sat
	case "Sun":
		return &p.Sun
	}
	return nil
}
