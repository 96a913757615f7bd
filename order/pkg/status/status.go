// Package status is the order tracking timeline: an ordered list of stages an
// order moves through, plus the terminal cancelled state.
package status

import (
	"fmt"

	inErrors "github.com/Alturino/foodorder/internal/errors"
)

type Status string

const (
	Pending        Status = "pending"
	Confirmed      Status = "confirmed"
	Preparing      Status = "preparing"
	OutForDelivery Status = "out_for_delivery"
	Delivered      Status = "delivered"
	Cancelled      Status = "cancelled"
)

var timeline = []struct {
	status Status
	label  string
}{
	{status: Pending, label: "Order placed"},
	{status: Confirmed, label: "Confirmed by restaurant"},
	{status: Preparing, label: "Preparing"},
	{status: OutForDelivery, label: "Out for delivery"},
	{status: Delivered, label: "Delivered"},
}

type Stage struct {
	Status  Status `json:"status"`
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
	Current bool   `json:"current"`
}

func Parse(s string) (Status, error) {
	st := Status(s)
	if st == Cancelled || position(st) >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("%w: %s", inErrors.ErrInvalidStatus, s)
}

func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransition allows any forward move along the timeline and cancelling a
// non terminal order. Stages may be skipped; nothing moves backwards.
func CanTransition(from, to Status) error {
	switch {
	case from.IsTerminal():
		return fmt.Errorf("%w: %s is terminal", inErrors.ErrInvalidTransition, from)
	case to == Cancelled:
		return nil
	case position(to) > position(from) && position(from) >= 0:
		return nil
	default:
		return fmt.Errorf("%w: %s to %s", inErrors.ErrInvalidTransition, from, to)
	}
}

// Timeline lists every stage with its progress for an order at current. A
// cancelled order keeps the stages it never reached unmarked.
func Timeline(current Status) []Stage {
	pos := position(current)
	stages := make([]Stage, 0, len(timeline))
	for i, stage := range timeline {
		stages = append(stages, Stage{
			Status:  stage.status,
			Label:   stage.label,
			Reached: pos >= 0 && i <= pos,
			Current: i == pos,
		})
	}
	return stages
}

func position(s Status) int {
	for i, stage := range timeline {
		if stage.status == s {
			return i
		}
	}
	return -1
}
