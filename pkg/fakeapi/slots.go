package fakeapi

import (
	"slices"
	"time"

	"github.com/illmade-knight/go-booking/pkg/catalog"
	"github.com/illmade-knight/go-booking/pkg/planning"
	"github.com/illmade-knight/go-booking/pkg/staff"
)

const dateLayout = "2006-01-02"

func findService(t *tenant, id string) (*catalog.Service, bool) {
	for i := range t.Services {
		if t.Services[i].ID == id {
			return &t.Services[i], true
		}
	}
	return nil, false
}

func findStaff(t *tenant, id string) (*staff.Member, bool) {
	for i := range t.Staff {
		if t.Staff[i].ID == id {
			return &t.Staff[i], true
		}
	}
	return nil, false
}

func findAppointment(t *tenant, id string) (*appointment, bool) {
	for _, a := range t.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// candidates returns the active staff able to perform svc, restricted to
// staffID when set.
func candidates(t *tenant, svc *catalog.Service, staffID string) []staff.Member {
	var out []staff.Member
	for _, m := range t.Staff {
		if !m.IsActive || !m.Performs(svc.ID) {
			continue
		}
		if staffID != "" && m.ID != staffID {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b staff.Member) int { return a.DisplayOrder - b.DisplayOrder })
	return out
}

func blocking(status string) bool {
	return status == planning.StatusPendingConfirmation || status == planning.StatusConfirmed
}

// window is the time an appointment of svc starting at start keeps a staff
// member busy, buffers included.
func window(svc *catalog.Service, start time.Time) (time.Time, time.Time) {
	from := start.Add(-time.Duration(svc.BufferBeforeMinutes) * time.Minute)
	to := start.Add(time.Duration(svc.DurationMinutes+svc.BufferAfterMinutes) * time.Minute)
	return from, to
}

// busy reports whether staffID has a blocking appointment overlapping
// [from, to), ignoring the appointment skipID.
func busy(t *tenant, staffID string, from, to time.Time, skipID string) bool {
	for _, a := range t.Appointments {
		if a.ID == skipID || !blocking(a.Status) || !a.AssignedTo(staffID) {
			continue
		}
		start, err := time.Parse(time.RFC3339, a.StartAt)
		if err != nil {
			continue
		}
		aFrom, aTo := start, start
		if svc, ok := findService(t, a.ServiceID); ok {
			aFrom, aTo = window(svc, start)
		} else if end, err := time.Parse(time.RFC3339, a.EndAt); err == nil {
			aTo = end
		}
		if from.Before(aTo) && aFrom.Before(to) {
			return true
		}
	}
	return false
}

// freeStaff returns the first candidate free for svc at start.
func freeStaff(t *tenant, svc *catalog.Service, start time.Time, staffID, skipID string) (string, bool) {
	from, to := window(svc, start)
	for _, m := range candidates(t, svc, staffID) {
		if !busy(t, m.ID, from, to, skipID) {
			return m.ID, true
		}
	}
	return "", false
}

// slotsFor lists the start times on day at which some candidate is free.
func (s *Server) slotsFor(t *tenant, svc *catalog.Service, day time.Time, staffID, skipID string) []string {
	open := day.Add(time.Duration(s.cfg.OpenHour) * time.Hour)
	closing := day.Add(time.Duration(s.cfg.CloseHour) * time.Hour)
	step := time.Duration(s.cfg.SlotStepMinutes) * time.Minute
	length := time.Duration(svc.DurationMinutes) * time.Minute

	slots := []string{}
	for start := open; !start.Add(length).After(closing); start = start.Add(step) {
		if _, ok := freeStaff(t, svc, start, staffID, skipID); ok {
			slots = append(slots, start.UTC().Format(time.RFC3339))
		}
	}
	return slots
}

// bookable checks that start is on the slot grid of its day and returns the
// staff member to assign.
func (s *Server) bookable(t *tenant, svc *catalog.Service, start time.Time, staffID, skipID string) (string, bool) {
	start = start.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	want := start.Format(time.RFC3339)
	if !slices.Contains(s.slotsFor(t, svc, day, staffID, skipID), want) {
		return "", false
	}
	return freeStaff(t, svc, start, staffID, skipID)
}
