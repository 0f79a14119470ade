package service

import (
	"github.com/google/uuid"
)

// userIDPtr converts the userID string pulled from the auth context into a
// nullable uuid for audit rows. Unparseable values (automation, tests) log as
// anonymous rather than failing the business operation.
func userIDPtr(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
