package goch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "wallet/logger"
	"wallet/mq/mq"
)

const (
	subscriberBuffer = 16
	deliverTimeout   = time.Second
)

type subscription[M mq.TopicProvider] struct {
	topic uuid.UUID
	ch    chan M
}

// fanOutQueueCore delivers each published message to every subscriber of
// its topic. Subscribers of uuid.Nil receive everything.
type fanOutQueueCore[M mq.TopicProvider] struct {
	publishChan chan M
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscription[M]
	quit        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	bufferSize  int
}

// newFanOutQueueCore starts the dispatch loop. bufferSize is the capacity
// of the publish channel; 0 makes Publish wait for the loop.
func newFanOutQueueCore[M mq.TopicProvider](bufferSize int) *fanOutQueueCore[M] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	core := &fanOutQueueCore[M]{
		publishChan: make(chan M, bufferSize),
		subscribers: make(map[uuid.UUID]*subscription[M]),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		bufferSize:  bufferSize,
	}
	go core.run()
	return core
}

func (c *fanOutQueueCore[M]) run() {
	defer close(c.done)
	for {
		select {
		case msg := <-c.publishChan:
			c.dispatch(msg)
		case <-c.quit:
			c.mu.Lock()
			for id, sub := range c.subscribers {
				close(sub.ch)
				delete(c.subscribers, id)
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *fanOutQueueCore[M]) dispatch(msg M) {
	topic := msg.GetTopic()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, sub := range c.subscribers {
		if sub.topic != uuid.Nil && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- msg:
		case <-time.After(deliverTimeout):
			applog.MQ.Warn().Str("subscriber", id.String()).Msg("timeout delivering message, skipping")
		case <-c.quit:
			return
		}
	}
}

func (c *fanOutQueueCore[M]) Publish(msg M) error {
	select {
	case <-c.quit:
		return mq.ErrQueueClosed
	default:
	}
	select {
	case c.publishChan <- msg:
		return nil
	case <-c.quit:
		return mq.ErrQueueClosed
	}
}

func (c *fanOutQueueCore[M]) Subscribe(topic uuid.UUID) (uuid.UUID, <-chan M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.quit:
		return uuid.Nil, nil, mq.ErrQueueClosed
	default:
	}

	id := uuid.New()
	sub := &subscription[M]{topic: topic, ch: make(chan M, subscriberBuffer)}
	c.subscribers[id] = sub
	return id, sub.ch, nil
}

func (c *fanOutQueueCore[M]) DeSubscribe(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subscribers[id]
	if !ok {
		return fmt.Errorf("subscriber %s: %w", id, mq.ErrSubscriberNotFound)
	}
	delete(c.subscribers, id)
	close(sub.ch)
	return nil
}

// Stop ends the dispatch loop and closes every subscriber channel.
// Messages still buffered are dropped.
func (c *fanOutQueueCore[M]) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
	<-c.done
}
