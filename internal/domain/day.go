package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// Day: календарная дата (UTC) без времени, хранится как YYYY-MM-DD
type Day string

func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return DayOf(t), nil
}

func (d Day) Time() time.Time {
	t, _ := time.Parse(DayLayout, string(d))
	return t
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d Day) Prev() Day { return d.AddDays(-1) }

func (d Day) Before(other Day) bool { return d < other }

func (d Day) String() string { return string(d) }

func (d Day) Value() (driver.Value, error) {
	return string(d), nil
}

func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*d = Day(v)
	case []byte:
		*d = Day(v)
	case time.Time:
		*d = DayOf(v)
	case nil:
		*d = ""
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
	return nil
}
