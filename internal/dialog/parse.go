package dialog

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidInterval reports interval text that is not a positive integer.
var ErrInvalidInterval = errors.New("interval must be a positive whole number")

// ParseInterval parses user-entered interval text as a number of minutes.
// Returns ErrInvalidInterval for anything but a positive integer.
func ParseInterval(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, ErrInvalidInterval
	}
	return n, nil
}
