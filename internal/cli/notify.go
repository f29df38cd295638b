package cli

import (
	"io"
	"sync"

	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/services/notification"
)

// lockedWriter serialises writes shared by the logger and the notification
// printer
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// notificationPrinter prints notifications as they are raised, each once
type notificationPrinter struct {
	source *notification.Service
	out    *Output

	mu      sync.Mutex
	last    int64
	printed int

	cancel func()
	done   chan struct{}
}

func startNotificationPrinter(source *notification.Service, out *Output) *notificationPrinter {
	ch, cancel := source.Subscribe()
	p := &notificationPrinter{
		source: source,
		out:    out,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		for list := range ch {
			p.print(list)
		}
	}()
	return p
}

// Stop ends the subscription, prints anything a dropped snapshot missed and
// returns how many notifications were printed in total
func (p *notificationPrinter) Stop() int {
	p.cancel()
	<-p.done
	p.print(p.source.Notifications())

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}

func (p *notificationPrinter) print(list []model.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fresh []model.Notification
	for _, n := range list {
		if n.ID > p.last {
			fresh = append(fresh, n)
			p.last = n.ID
		}
	}
	p.out.PrintNotifications(fresh)
	p.printed += len(fresh)
}
