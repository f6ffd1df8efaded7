package eventBus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yieldshift/sidecar/internal/tests"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/yieldshift/sidecar/pkg/viewModel"
)

func Test_EventBus(t *testing.T) {
	l := tests.GetLogger()

	t.Run("Consumer unsubscribes after three events", func(t *testing.T) {
		eb := NewEventBus(l)

		consumer := &eventBusTypes.Consumer{
			Id:      "testConsumer",
			Channel: make(chan *eventBusTypes.Event, 1000),
			Context: context.Background(),
		}

		receivedCount := atomic.Uint64{}
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range consumer.Channel {
				data := event.Data.(*eventBusTypes.ActivityBatchData)
				assert.Equal(t, viewModel.ActivityEventType_YieldShifted, data.Type)

				if receivedCount.Add(1) == 3 {
					eb.Unsubscribe(consumer)
					return
				}
			}
		}()
		eb.Subscribe(consumer)

		for i := 0; i < 3; i++ {
			eb.Publish(&eventBusTypes.Event{
				Name: eventBusTypes.Event_ActivityBatch,
				Data: &eventBusTypes.ActivityBatchData{Type: viewModel.ActivityEventType_YieldShifted},
			})
		}
		wg.Wait()

		assert.Equal(t, uint64(3), receivedCount.Load())
		assert.Equal(t, 0, eb.ConsumerCount())
	})
	t.Run("Full channels drop events instead of blocking", func(t *testing.T) {
		eb := NewEventBus(l)
		consumer := &eventBusTypes.Consumer{
			Id:      "slow",
			Channel: make(chan *eventBusTypes.Event, 1),
			Context: context.Background(),
		}
		eb.Subscribe(consumer)

		for i := 0; i < 5; i++ {
			eb.Publish(&eventBusTypes.Event{Name: eventBusTypes.Event_SessionChanged})
		}
		assert.Len(t, consumer.Channel, 1)
	})
	t.Run("Cancelled consumers are skipped", func(t *testing.T) {
		eb := NewEventBus(l)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		consumer := &eventBusTypes.Consumer{
			Id:      "gone",
			Channel: make(chan *eventBusTypes.Event, 1),
			Context: ctx,
		}
		eb.Subscribe(consumer)
		eb.Publish(&eventBusTypes.Event{Name: eventBusTypes.Event_SessionChanged})
		assert.Len(t, consumer.Channel, 0)
	})
}
