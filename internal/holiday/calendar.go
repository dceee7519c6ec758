// Package holiday справочник государственных праздников и подсчёт рабочих дней.
package holiday

import (
	"fmt"
	"sort"
	"time"

	"github.com/T1mof/sprint-planner/internal/domain"
)

// Calendar неизменяемая таблица праздников, сгруппированная по стране.
type Calendar struct {
	byCountry map[string][]entry
}

type entry struct {
	date    time.Time
	holiday domain.PublicHoliday
}

// NewCalendar строит календарь из таблицы праздников. Даты должны быть в формате YYYY-MM-DD.
func NewCalendar(holidays []domain.PublicHoliday) (*Calendar, error) {
	c := &Calendar{byCountry: make(map[string][]entry)}

	for _, h := range holidays {
		d, err := time.Parse(domain.DateLayout, h.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q for %s: %w", h.Date, h.Country, err)
		}
		c.byCountry[h.Country] = append(c.byCountry[h.Country], entry{date: d, holiday: h})
	}

	for country := range c.byCountry {
		entries := c.byCountry[country]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].date.Before(entries[j].date)
		})
	}

	return c, nil
}

// Default календарь со встроенной таблицей.
func Default() *Calendar {
	c, err := NewCalendar(defaultHolidays)
	if err != nil {
		panic(err)
	}
	return c
}

// Countries список стран, для которых есть праздники.
func (c *Calendar) Countries() []string {
	countries := make([]string, 0, len(c.byCountry))
	for country := range c.byCountry {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	return countries
}

// ForCountry все праздники страны по возрастанию даты.
func (c *Calendar) ForCountry(country string) []domain.PublicHoliday {
	entries := c.byCountry[country]
	out := make([]domain.PublicHoliday, len(entries))
	for i, e := range entries {
		out[i] = e.holiday
	}
	return out
}

// CountInRange число праздников страны, выпадающих на будни в интервале [start, end].
func (c *Calendar) CountInRange(country string, start, end time.Time) int {
	start, end = truncate(start), truncate(end)

	count := 0
	for _, e := range c.byCountry[country] {
		if e.date.Before(start) || e.date.After(end) {
			continue
		}
		if IsWeekday(e.date) {
			count++
		}
	}
	return count
}

// WorkingDays число будних дней в интервале [start, end] включительно.
func WorkingDays(start, end time.Time) int {
	start, end = truncate(start), truncate(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			days++
		}
	}
	return days
}

func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
