package view

import (
	"github.com/illmade-knight/go-booking/pkg/adminauth"
	"github.com/illmade-knight/go-booking/pkg/planning"
)

// Card is one appointment on the board.
type Card struct {
	Appointment planning.Appointment
	Time        string
	Customer    string
	Tone        string
	Actions     []planning.Action
	Editable    bool
}

// Column holds the cards of one staff member, in start order.
type Column struct {
	Staff planning.Staff
	Cards []Card
}

// Board is the planning day grouped by staff column.
type Board struct {
	Date       string
	Timezone   string
	Role       adminauth.Role
	Columns    []Column
	Unassigned []Card
}

// NewBoard groups day by staff. Appointments without a known column are
// listed as unassigned.
func NewBoard(day planning.DayResponse) Board {
	b := Board{Date: day.Date, Timezone: day.Timezone, Role: day.ViewerRole}
	index := make(map[string]int, len(day.Staff))
	for i, s := range day.Staff {
		index[s.ID] = i
		b.Columns = append(b.Columns, Column{Staff: s})
	}
	for _, a := range day.Appointments {
		card := newCard(a, day.Timezone, day.ViewerRole)
		if a.StaffID != nil {
			if i, ok := index[*a.StaffID]; ok {
				b.Columns[i].Cards = append(b.Columns[i].Cards, card)
				continue
			}
		}
		b.Unassigned = append(b.Unassigned, card)
	}
	return b
}

func newCard(a planning.Appointment, zone string, role adminauth.Role) Card {
	customer := "Customer"
	if a.CustomerName != nil && *a.CustomerName != "" {
		customer = *a.CustomerName
	}
	if a.CustomerPhone != nil && *a.CustomerPhone != "" {
		customer += " (" + *a.CustomerPhone + ")"
	}
	return Card{
		Appointment: a,
		Time:        localClock(a.StartAt, zone) + "-" + localClock(a.EndAt, zone),
		Customer:    customer,
		Tone:        planning.Tone(a.Status),
		Actions:     planning.ActionsFor(a.Status, role),
		Editable:    planning.CanEdit(a.Status, role),
	}
}

// Find returns the card of appointment id.
func (b Board) Find(id string) (Card, bool) {
	for _, col := range b.Columns {
		for _, c := range col.Cards {
			if c.Appointment.ID == id {
				return c, true
			}
		}
	}
	for _, c := range b.Unassigned {
		if c.Appointment.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
