package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func pluginInstanceHandlers() repository.ModelHandlers[*pluginInstanceRecord] {
	return repository.ModelHandlers[*pluginInstanceRecord]{
		NewRecord: func() *pluginInstanceRecord {
			return &pluginInstanceRecord{}
		},
		GetID: func(record *pluginInstanceRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *pluginInstanceRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *pluginInstanceRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func pluginValueHandlers() repository.ModelHandlers[*pluginValueRecord] {
	return repository.ModelHandlers[*pluginValueRecord]{
		NewRecord: func() *pluginValueRecord {
			return &pluginValueRecord{}
		},
		GetID: func(record *pluginValueRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *pluginValueRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *pluginValueRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func pluginActivityHandlers() repository.ModelHandlers[*pluginActivityRecord] {
	return repository.ModelHandlers[*pluginActivityRecord]{
		NewRecord: func() *pluginActivityRecord {
			return &pluginActivityRecord{}
		},
		GetID: func(record *pluginActivityRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *pluginActivityRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *pluginActivityRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
