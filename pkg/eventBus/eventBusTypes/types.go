package eventBusTypes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	Event_WindowProcessed = "window_processed"
	Event_RunCompleted    = "run_completed"
)

type Event struct {
	Name string
	Data any
}

type ConsumerId string

func NewConsumerId(prefix string) ConsumerId {
	return ConsumerId(prefix + "-" + uuid.New().String())
}

type Consumer struct {
	Id      ConsumerId
	Context context.Context
	Channel chan *Event
}

type ConsumerList struct {
	mu        sync.Mutex
	consumers []*Consumer
}

func NewConsumerList() *ConsumerList {
	return &ConsumerList{
		consumers: make([]*Consumer, 0),
	}
}

func (cl *ConsumerList) Add(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = append(cl.consumers, consumer)
}

func (cl *ConsumerList) Remove(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for i, c := range cl.consumers {
		if c.Id == consumer.Id {
			cl.consumers = append(cl.consumers[:i], cl.consumers[i+1:]...)
			break
		}
	}
}

// GetAll returns a snapshot so consumers can unsubscribe while an event is being published.
func (cl *ConsumerList) GetAll() []*Consumer {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := make([]*Consumer, len(cl.consumers))
	copy(out, cl.consumers)
	return out
}

type IEventBus interface {
	Subscribe(consumer *Consumer)
	Unsubscribe(consumer *Consumer)
	Publish(event *Event)
}

// WindowProcessedData is published after a window and its checkpoint are committed.
type WindowProcessedData struct {
	FromPosition uint64
	ToPosition   uint64
	LedgerTip    uint64
	FactCount    int
	FactsByKind  map[string]int
	StateRoot    string
	Duration     time.Duration
}

type RunCompletedData struct {
	StartPosition    uint64
	EndPosition      uint64
	LedgerTip        uint64
	WindowsProcessed int
	FactsApplied     int
	Err              error
}
