package restart

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval parses an operator-entered restart interval.
// Accepted forms are "hh:mm", "hh:mm:ss", "d.hh:mm[:ss]" and Go durations
// such as "90m" or "6h".
func ParseInterval(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrInvalidInterval
	}

	var (
		d   time.Duration
		err error
	)
	if strings.Contains(input, ":") {
		d, err = parseClock(input)
	} else {
		d, err = time.ParseDuration(input)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, input)
	}
	if d <= 0 {
		return 0, ErrInvalidInterval
	}
	return d, nil
}

func parseClock(input string) (time.Duration, error) {
	var days int
	parts := strings.Split(input, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("expected hh:mm or hh:mm:ss")
	}

	hourPart := parts[0]
	if dot := strings.Index(hourPart, "."); dot >= 0 {
		n, err := strconv.Atoi(hourPart[:dot])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad days")
		}
		days = n
		hourPart = hourPart[dot+1:]
	}

	limits := []int{23, 59, 59}
	fields := append([]string{hourPart}, parts[1:]...)
	values := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("field %d out of range", i)
		}
		values[i] = n
	}

	return time.Duration(days)*24*time.Hour +
		time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second, nil
}
