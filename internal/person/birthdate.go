package person

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseBirthdate splits a DD-MM-YYYY birthdate. Single digit days and months
// are accepted.
func ParseBirthdate(s string) (day, month, year int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("birthdate %q: want DD-MM-YYYY", s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("birthdate %q: %w", s, err)
		}
		nums[i] = n
	}
	day, month, year = nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("birthdate %q: day or month out of range", s)
	}
	return day, month, year, nil
}

// Born returns the birthdate of p as a UTC date.
func (p *Person) Born() (time.Time, bool) {
	if p.Birthdate == "" {
		return time.Time{}, false
	}
	day, month, year, err := ParseBirthdate(p.Birthdate)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
