package service

import (
	"context"
	"testing"

	"github.com/candy-store/internal/queue"
	"github.com/candy-store/internal/repository"
)

type receiverLookupStub struct {
	repository.OrderRepository
	receiver string
	err      error
	calls    int
}

func (s *receiverLookupStub) ResolveReceiverEmailByOrderID(_ uint) (string, error) {
	s.calls++
	return s.receiver, s.err
}

func TestRouteStatusEmailWithoutQueueSendsInline(t *testing.T) {
	disabled, _ := queue.NewClient(nil)
	lookup := &receiverLookupStub{receiver: "buyer@example.com"}

	route, err := routeStatusEmail(context.Background(), lookup, disabled, 102, "shipped")
	if err != nil || route != statusEmailInline {
		t.Fatalf("disabled queue should route inline, got %v err=%v", route, err)
	}
	if lookup.calls != 0 {
		t.Fatalf("receiver lookup is left to the inline sender")
	}

	route, err = routeStatusEmail(context.Background(), lookup, nil, 102, "shipped")
	if err != nil || route != statusEmailInline {
		t.Fatalf("nil queue should route inline, got %v err=%v", route, err)
	}
}

func TestRouteStatusEmailSkipsUnknownOrder(t *testing.T) {
	route, err := routeStatusEmail(context.Background(), nil, nil, 0, "created")
	if err != nil || route != statusEmailNoRecipient {
		t.Fatalf("order id 0 should be skipped, got %v err=%v", route, err)
	}
}
