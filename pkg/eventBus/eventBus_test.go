package eventBus

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
	"github.com/stretchr/testify/assert"
)

func Test_EventBus(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	t.Run("Should deliver events until the consumer unsubscribes", func(t *testing.T) {
		eb := NewEventBus(l)

		consumer := &eventBusTypes.Consumer{
			Id:      eventBusTypes.NewConsumerId("test"),
			Channel: make(chan *eventBusTypes.Event, 1000),
			Context: context.Background(),
		}

		receivedCount := atomic.Uint64{}
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range consumer.Channel {
				assert.Equal(t, eventBusTypes.Event_WindowProcessed, event.Name)
				if receivedCount.Add(1) == 3 {
					eb.Unsubscribe(consumer)
					return
				}
			}
		}()
		eb.Subscribe(consumer)

		for i := 0; i < 3; i++ {
			eb.Publish(&eventBusTypes.Event{
				Name: eventBusTypes.Event_WindowProcessed,
				Data: &eventBusTypes.WindowProcessedData{ToPosition: uint64(i)},
			})
		}
		wg.Wait()

		eb.Publish(&eventBusTypes.Event{Name: eventBusTypes.Event_RunCompleted})
		assert.Equal(t, uint64(3), receivedCount.Load())
		assert.Len(t, consumer.Channel, 0)
	})
	t.Run("Should not block when a consumer channel is full", func(t *testing.T) {
		eb := NewEventBus(l)
		consumer := &eventBusTypes.Consumer{
			Id:      eventBusTypes.NewConsumerId("full"),
			Channel: make(chan *eventBusTypes.Event, 1),
		}
		eb.Subscribe(consumer)

		eb.Publish(&eventBusTypes.Event{Name: eventBusTypes.Event_WindowProcessed})
		eb.Publish(&eventBusTypes.Event{Name: eventBusTypes.Event_RunCompleted})

		assert.Len(t, consumer.Channel, 1)
		assert.Equal(t, eventBusTypes.Event_WindowProcessed, (<-consumer.Channel).Name)
	})
	t.Run("Should generate distinct consumer ids", func(t *testing.T) {
		a := eventBusTypes.NewConsumerId("progress")
		b := eventBusTypes.NewConsumerId("progress")
		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasPrefix(string(a), "progress-"))
	})
}
