package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Every gateway table keys on a uuid stored as text, so one generic handler
// set serves all record types.
type stringIDRecord interface {
	recordID() string
	setRecordID(id string)
}

func recordHandlers[T any, PT interface {
	*T
	stringIDRecord
}]() repository.ModelHandlers[PT] {
	return repository.ModelHandlers[PT]{
		NewRecord: func() PT {
			return PT(new(T))
		},
		GetID: func(record PT) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.recordID())
		},
		SetID: func(record PT, id uuid.UUID) {
			if record == nil {
				return
			}
			record.setRecordID(id.String())
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record PT) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.recordID())
		},
	}
}

func organizationHandlers() repository.ModelHandlers[*organizationRecord] {
	return recordHandlers[organizationRecord]()
}

func credentialHandlers() repository.ModelHandlers[*credentialRecord] {
	return recordHandlers[credentialRecord]()
}

func webhookDeliveryHandlers() repository.ModelHandlers[*webhookDeliveryRecord] {
	return recordHandlers[webhookDeliveryRecord]()
}

func (r *organizationRecord) recordID() string      { return r.ID }
func (r *organizationRecord) setRecordID(id string) { r.ID = id }

func (r *credentialRecord) recordID() string      { return r.ID }
func (r *credentialRecord) setRecordID(id string) { r.ID = id }

func (r *webhookDeliveryRecord) recordID() string      { return r.ID }
func (r *webhookDeliveryRecord) setRecordID(id string) { r.ID = id }

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
