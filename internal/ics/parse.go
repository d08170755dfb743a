package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Property names the library has no constants for.
const (
	propRecurrenceID = "RECURRENCE-ID"
	propBusyStatus   = "X-MICROSOFT-CDO-BUSYSTATUS"
)

const (
	dateLayout     = "20060102"
	localLayout    = "20060102T150405"
	utcLayout      = "20060102T150405Z"
	statusCanceled = "CANCELLED"
)

// vevent is a VEVENT reduced to what status resolution needs. Recurrences
// are expanded later.
type vevent struct {
	UID        string
	Summary    string
	Start      time.Time
	End        time.Time
	AllDay     bool
	RRule      string
	ExDates    []time.Time
	Recurrence *time.Time
	Cancelled  bool
	Class      string
	BusyStatus string
	Attendees  map[string]string // lower-cased email -> PARTSTAT
}

// parse decodes an ICS payload. Date-only values are placed at midnight in
// loc. VEVENTs that cannot be placed in time are skipped.
func parse(body []byte, loc *time.Location) ([]vevent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := make([]vevent, 0)
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp, loc)
		if err != nil {
			logger.Warn("skipping vevent", "err", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	var out vevent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = ical.FromText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Cancelled = strings.EqualFold(p.Value, statusCanceled)
	}
	if p := ve.GetProperty(ical.ComponentPropertyClass); p != nil {
		out.Class = strings.ToLower(p.Value)
	}
	if p := ve.GetProperty(propBusyStatus); p != nil {
		out.BusyStatus = strings.ToUpper(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART in " + out.UID)
	}
	start, allDay, err := propTime(dtStart, loc)
	if err != nil {
		return out, err
	}
	out.Start, out.AllDay = start, allDay

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if out.End, _, err = propTime(dtEnd, loc); err != nil {
			return out, err
		}
	} else if dur := ve.GetProperty(ical.ComponentPropertyDuration); dur != nil {
		days, d, err := parseDuration(dur.Value)
		if err != nil {
			return out, fmt.Errorf("bad DURATION in %s: %w", out.UID, err)
		}
		out.End = start.AddDate(0, 0, days).Add(d)
	} else if allDay {
		out.End = start.AddDate(0, 0, 1)
	} else {
		out.End = start
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid := param(p, "TZID")
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseTime(strings.TrimSpace(part), tzid, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		if t, _, err := propTime(p, loc); err == nil {
			out.Recurrence = &t
		}
	}

	for _, a := range ve.Attendees() {
		if out.Attendees == nil {
			out.Attendees = make(map[string]string)
		}
		email := strings.TrimPrefix(strings.ToLower(a.Email()), "mailto:")
		out.Attendees[email] = string(a.ParticipationStatus())
	}

	return out, nil
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func propTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	t, allDay, err := parseTime(p.Value, param(p, "TZID"), loc)
	if strings.EqualFold(param(p, "VALUE"), "DATE") {
		allDay = true
	}
	return t, allDay, err
}

// parseTime parses DATE, floating DATE-TIME, UTC DATE-TIME and DATE-TIME
// with TZID. Floating times and unknown zones fall back to loc.
func parseTime(v, tzid string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, false, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(utcLayout, v)
		return t, false, err
	case strings.Contains(v, "T"):
		zone := loc
		if tzid != "" {
			if l, err := time.LoadLocation(tzid); err == nil {
				zone = l
			}
		}
		t, err := time.ParseInLocation(localLayout, v, zone)
		return t, false, err
	default:
		t, err := time.ParseInLocation(dateLayout, v, loc)
		return t, true, err
	}
}

// parseDuration parses an RFC 5545 dur-value such as "PT30M", "P1D" or
// "P1DT2H". Weeks and days are returned as calendar days so they follow
// DST changes; the time part is exact.
func parseDuration(v string) (int, time.Duration, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	sign := 1
	switch {
	case strings.HasPrefix(v, "-"):
		sign, v = -1, v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") || len(v) < 3 {
		return 0, 0, fmt.Errorf("invalid duration %q", v)
	}
	v = v[1:]

	var days int
	var d time.Duration
	inTime := false
	num := ""
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return 0, 0, fmt.Errorf("invalid duration %q", v)
			}
			inTime = true
			continue
		}
		if num == "" {
			return 0, 0, fmt.Errorf("invalid duration %q", v)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, 0, err
		}
		num = ""
		switch {
		case r == 'W' && !inTime:
			days += 7 * n
		case r == 'D' && !inTime:
			days += n
		case r == 'H' && inTime:
			d += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			d += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			d += time.Duration(n) * time.Second
		default:
			return 0, 0, fmt.Errorf("invalid duration %q", v)
		}
	}
	if num != "" {
		return 0, 0, fmt.Errorf("invalid duration %q", v)
	}
	return sign * days, time.Duration(sign) * d, nil
}
