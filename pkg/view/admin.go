package view

import (
	"fmt"
	"strings"

	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/query"
	"github.com/illmade-knight/go-booking/pkg/staff"
)

// CatalogSection renders the admin service list.
func CatalogSection(s query.State[catalog.ServicesResponse]) Section {
	return Read("Services", s, ScopeAdmin, Texts{
		Loading: "Loading services...",
		Error:   "Could not load services.",
		Empty:   "No services yet.",
	}, func(resp catalog.ServicesResponse) []string {
		lines := make([]string, 0, len(resp.Services))
		for _, svc := range resp.Services {
			price := "no price"
			if p, ok := svc.Price(); ok {
				price = fmt.Sprintf("%d.%02d", p/100, p%100)
			}
			state := "active"
			if !svc.IsActive {
				state = "archived"
			}
			lines = append(lines, fmt.Sprintf("%-8s %-24s %3d min (+%d/+%d)  %-9s %s",
				svc.ID, svc.Name, svc.DurationMinutes, svc.BufferBeforeMinutes, svc.BufferAfterMinutes, price, state))
		}
		return lines
	})
}

// StaffSection renders the staff list.
func StaffSection(s query.State[staff.ListResponse]) Section {
	return Read("Staff", s, ScopeAdmin, Texts{
		Loading: "Loading staff...",
		Error:   "Could not load staff.",
		Empty:   "No staff members yet.",
	}, func(resp staff.ListResponse) []string {
		lines := make([]string, 0, len(resp.Staff))
		for _, m := range resp.Staff {
			login := "no login"
			if m.HasLogin() {
				login = "login"
			}
			state := "active"
			if !m.IsActive {
				state = "archived"
			}
			lines = append(lines, fmt.Sprintf("%-8s %-20s %-8s %-8s services: %s",
				m.ID, m.DisplayName, login, state, strings.Join(m.ServiceIDs, ",")))
		}
		return lines
	})
}
