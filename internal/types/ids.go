package types

import (
	"github.com/google/uuid"
)

// NewRuleID generates a UUIDv7 rule identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// NewLeadID generates a UUIDv7 lead identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewLeadID() LeadID {
	return LeadID(uuid.Must(uuid.NewV7()).String())
}

// ParseRuleID validates and converts a string to RuleID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRuleID(s string) (RuleID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseLeadID validates and converts a string to LeadID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseLeadID(s string) (LeadID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return LeadID(s), nil
}
