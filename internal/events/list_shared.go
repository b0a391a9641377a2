package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

const (
	ListSharedEventName    = "ListShared"
	ListSharedEventVersion = 1
	ListSharedSchemaPath   = "contracts/events/list/ListShared.v1.enveloped.schema.json"
	ListServiceProducer    = "listbuilder-service"
)

type EventEnvelope struct {
	EventName    string            `json:"eventName"`
	EventVersion int               `json:"eventVersion"`
	EventID      string            `json:"eventId"`
	Producer     string            `json:"producer"`
	PartitionKey string            `json:"partitionKey"`
	Sequence     int64             `json:"sequence"`
	OccurredAt   time.Time         `json:"occurredAt"`
	Schema       string            `json:"schema"`
	Payload      ListSharedPayload `json:"payload"`
}

type ListSharedPayload struct {
	ListID       string           `json:"listId"`
	Name         string           `json:"name"`
	BusinessName string           `json:"businessName,omitempty"`
	Items        []ListSharedItem `json:"items"`
	TotalCost    float64          `json:"totalCost"`
	Timestamp    time.Time        `json:"timestamp"`
}

type ListSharedItem struct {
	ProductID       int64   `json:"productId"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	Category        string  `json:"category,omitempty"`
	RequirementName string  `json:"requirementName,omitempty"`
}

type EnvelopeOptions struct {
	PartitionKey string
	Sequence     int64
	Producer     string
	EventID      string
	OccurredAt   time.Time
}

func BuildListSharedEvent(list *snapshot.SharedList, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	producer := opts.Producer
	if producer == "" {
		producer = ListServiceProducer
	}

	payload := ListSharedPayload{
		ListID:       list.ID,
		Name:         list.Name,
		BusinessName: list.BusinessName,
		TotalCost:    list.TotalCost,
		Timestamp:    occurredAt,
	}

	for _, it := range list.Items {
		payload.Items = append(payload.Items, ListSharedItem{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			Price:           it.Price,
			Category:        it.Category,
			RequirementName: it.RequirementName,
		})
	}

	return EventEnvelope{
		EventName:    ListSharedEventName,
		EventVersion: ListSharedEventVersion,
		EventID:      eventID,
		Producer:     producer,
		PartitionKey: opts.PartitionKey,
		Sequence:     opts.Sequence,
		OccurredAt:   occurredAt,
		Schema:       ListSharedSchemaPath,
		Payload:      payload,
	}
}
