package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agendei/agendei/internal/domain"
)

// schemaFor returns an empty payload for subject, or nil for subjects
// without a schema.
func schemaFor(subject string) any {
	switch {
	case subject == SubjectReviewCreated:
		return &ReviewCreatedPayload{}
	case strings.HasPrefix(subject, "appointments.") && !strings.HasSuffix(subject, ".dlq"):
		return &AppointmentEventPayload{}
	default:
		return nil
	}
}

// Validate checks data against the schema of subject. Every known payload
// names its tenant since subscribers route by it. Subjects without a schema
// only need to be JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	target := schemaFor(subject)
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if err := domain.ValidateStruct(target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
