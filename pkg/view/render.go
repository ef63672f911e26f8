package view

import (
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata"
)

// WriteSections prints sections as plain text.
func WriteSections(w io.Writer, sections ...Section) error {
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "== %s ==\n", s.Title); err != nil {
			return err
		}
		if s.Message != "" {
			if _, err := fmt.Fprintf(w, "[%s] %s\n", s.Tone, s.Message); err != nil {
				return err
			}
		}
		for _, line := range s.Lines {
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteBoard prints a planning board column by column.
func WriteBoard(w io.Writer, b Board) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Planning %s (%s), viewing as %s\n", b.Date, b.Timezone, b.Role)
	write := func(title string, cards []Card) {
		fmt.Fprintf(&sb, "-- %s --\n", title)
		if len(cards) == 0 {
			sb.WriteString("  No appointments\n")
		}
		for _, c := range cards {
			fmt.Fprintf(&sb, "  %s  %s  %s  [%s] %s\n", c.Time, c.Appointment.ServiceName, c.Customer, c.Tone, c.Appointment.ID)
			if len(c.Actions) > 0 {
				labels := make([]string, 0, len(c.Actions)+1)
				if c.Editable {
					labels = append(labels, "Edit")
				}
				for _, a := range c.Actions {
					labels = append(labels, a.Label)
				}
				fmt.Fprintf(&sb, "      actions: %s\n", strings.Join(labels, ", "))
			}
		}
	}
	for _, col := range b.Columns {
		write(col.Staff.DisplayName, col.Cards)
	}
	if len(b.Unassigned) > 0 {
		write("Unassigned", b.Unassigned)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// localClock formats an RFC 3339 instant as HH:MM in the named zone. Unknown
// zones fall back to UTC and unparseable instants are returned unchanged.
func localClock(instant, zone string) string {
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return instant
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}
