package store

import "sync"

// notifier fans out per-user change signals to subscribed watchers. Sends
// are non-blocking: a watcher that has not drained its channel still holds
// one pending signal, which is enough to trigger a re-query.
type notifier struct {
	mu       sync.Mutex
	watchers map[string]map[int]chan struct{}
	nextID   int
}

func newNotifier() *notifier {
	return &notifier{watchers: make(map[string]map[int]chan struct{})}
}

func (n *notifier) subscribe(userID string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.watchers[userID]; !ok {
		n.watchers[userID] = make(map[int]chan struct{})
	}
	id := n.nextID
	n.nextID++

	ch := make(chan struct{}, 1)
	n.watchers[userID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if chans, ok := n.watchers[userID]; ok {
			delete(chans, id)
			if len(chans) == 0 {
				delete(n.watchers, userID)
			}
		}
	}
	return ch, cancel
}

func (n *notifier) notify(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.watchers[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
