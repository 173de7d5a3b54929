package service

import (
	"errors"
	"fmt"

	"studiodesk/internal/domain"
	"studiodesk/internal/finance"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// closedMeanwhile reports a guarded update that lost to a request which
// cancelled or completed the booking first.
func closedMeanwhile(action, id string) error {
	return fmt.Errorf("%w: %s booking %s", finance.ErrTerminalStatus, action, id)
}
