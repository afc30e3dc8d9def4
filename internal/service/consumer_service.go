package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"research-workflow-be/internal/repository/specification"
	"research-workflow-be/internal/repository/unitofwork"
	"research-workflow-be/internal/websocket"
	"research-workflow-be/pkg/events"
	"research-workflow-be/pkg/store"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the boundary adapter between the event bus and the
// read side: it refreshes the current-spec store from the database after a
// save and forwards every analysis event to connected websocket clients.
type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	currentSpecs *store.CurrentSpecs
	hub          *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	currentSpecs *store.CurrentSpecs,
	hub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		currentSpecs: currentSpecs,
		hub:          hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		log.Printf("[ERROR] Failed to unmarshal event: %v", err)
		msg.Ack() // malformed events never become valid on retry
		return
	}

	if envelope.Type == events.TypeSpecSaved {
		cs.refreshCurrentSpec(ctx, envelope.Data)
	}

	if cs.hub != nil {
		cs.hub.Broadcast(envelope.Type, envelope.Data)
	}
	msg.Ack()
}

func (cs *consumerService) refreshCurrentSpec(ctx context.Context, data map[string]interface{}) {
	rawID, _ := data["analysis_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("[ERROR] SPEC_SAVED event with bad analysis_id %q", rawID)
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		log.Printf("[ERROR] Failed to load analysis %s for spec refresh: %v", rawID, err)
		return
	}
	if analysis == nil || analysis.Spec == nil {
		log.Printf("[WARN] SPEC_SAVED for %s but no stored spec found", rawID)
		return
	}

	cs.currentSpecs.Set(analysis.Spec)
}
