package service

import (
	"fmt"
	"time"
)

// BusinessHours is the window, in a fixed time zone, during which counsellors
// answer chats. CloseHour 24 means midnight.
type BusinessHours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

func NewBusinessHours(timezone string, openHour, closeHour int) (BusinessHours, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("load chat timezone %q: %w", timezone, err)
	}
	return BusinessHours{Location: loc, OpenHour: openHour, CloseHour: closeHour}, nil
}

func (b BusinessHours) IsOpen(at time.Time) bool {
	h := at.In(b.Location).Hour()
	return h >= b.OpenHour && h < b.CloseHour
}
