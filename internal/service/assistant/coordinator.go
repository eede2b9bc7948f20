package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
)

// Outcome is the resolution of one accepted submission. It is delivered
// after busy has been cleared.
type Outcome struct {
	Reply        *chat.Message
	Err          error
	Notification *Notification
}

// SubmitDraft submits the current draft.
func (w *Widget) SubmitDraft(ctx context.Context) (<-chan Outcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitLocked(ctx, w.draft)
}

// Submit sends text to the completion service. It returns false without
// touching any state when text is blank, a request is already in flight, or
// the widget is closed. On acceptance the returned channel yields exactly
// one Outcome.
//
// The request is detached from ctx cancellation: once issued it always runs
// to completion.
func (w *Widget) Submit(ctx context.Context, text string) (<-chan Outcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitLocked(ctx, text)
}

func (w *Widget) submitLocked(ctx context.Context, text string) (<-chan Outcome, bool) {
	if w.closed || w.busy || strings.TrimSpace(text) == "" {
		return nil, false
	}

	w.conversation.Append(chat.UserMessage(text))

	if w.draft != "" {
		w.draft = ""
		w.events.publish(Event{Type: EventDraft})
	}

	w.busy = true
	w.events.publish(Event{Type: EventBusy, Busy: true})

	history := w.conversation.All()
	out := make(chan Outcome, 1)
	go w.await(context.WithoutCancel(ctx), history, out)
	return out, true
}

func (w *Widget) await(ctx context.Context, history []chat.Message, out chan<- Outcome) {
	defer close(out)

	reply, err := w.complete(ctx, history)
	out <- w.reconcile(reply, err)
}

func (w *Widget) complete(ctx context.Context, history []chat.Message) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panicked: %v", r)
		}
	}()

	if w.completer == nil {
		return "", fmt.Errorf("no completer configured")
	}
	return w.completer.Complete(ctx, w.system, history)
}

func (w *Widget) reconcile(reply string, err error) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	var outcome Outcome
	switch {
	case err != nil:
		log.Printf("[assistant] widget=%s completion failed: %v", w.id, err)
		notification := NotificationFor(err)
		w.events.publish(Event{Type: EventNotification, Notification: &notification})
		outcome = Outcome{Err: err, Notification: &notification}
	case w.closed:
		outcome = Outcome{Err: ErrClosed}
	default:
		msg := chat.AssistantMessage(reply)
		w.conversation.Append(msg)
		outcome = Outcome{Reply: &msg}
	}

	w.busy = false
	w.events.publish(Event{Type: EventBusy, Busy: false})
	return outcome
}
