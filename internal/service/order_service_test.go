package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

func checkoutInput(items ...CheckoutItem) CheckoutInput {
	return CheckoutInput{
		FullName: "Keanu Reeves",
		Address:  " 1 Candy Lane ",
		City:     "Sweetville",
		ZipCode:  "12345",
		Items:    items,
	}
}

func TestCheckoutFromCart(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	bears := env.createProduct(t, "Gummy Bears", 10)
	worms := env.createProduct(t, "Sour Worms", 20)
	user := env.createUser(t, "alice", true)
	for _, item := range []models.CartItem{
		{UserID: user.ID, ProductID: bears.ID, Quantity: 2},
		{UserID: user.ID, ProductID: worms.ID, Quantity: 1},
	} {
		item := item
		if err := env.cartRepo.Upsert(&item); err != nil {
			t.Fatalf("seed cart failed: %v", err)
		}
	}

	order, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusCreated || !strings.HasPrefix(order.OrderNo, "CS") {
		t.Fatalf("unexpected order: %+v", order)
	}
	if order.Address != "1 Candy Lane" {
		t.Fatalf("shipping fields should be trimmed, got %q", order.Address)
	}
	if order.TotalPrice.String() != "7.50" || len(order.Items) != 2 {
		t.Fatalf("unexpected total %s items=%d", order.TotalPrice.String(), len(order.Items))
	}
	if env.stockOf(t, bears.ID) != 8 || env.stockOf(t, worms.ID) != 19 {
		t.Fatalf("stock should be decremented")
	}

	cart, err := env.cartRepo.ListByUser(user.ID)
	if err != nil || len(cart) != 0 {
		t.Fatalf("cart should be cleared, got %d err=%v", len(cart), err)
	}
	entry, err := env.watchlistRepo.GetByUserAndProduct(user.ID, bears.ID)
	if err != nil || entry == nil || !entry.AutoAdded {
		t.Fatalf("purchased product should be auto-watched: %+v err=%v", entry, err)
	}

	mails := env.mailer.to(user.Email)
	if len(mails) != 1 || mails[0].Subject != "Order Confirmation: "+order.OrderNo {
		t.Fatalf("expected confirmation email, got %+v", mails)
	}
}

func TestCheckoutKeepsExplicitWatchlistEntry(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Toffee", 10)
	user := env.createUser(t, "alice", true)
	env.watch(t, user.ID, product.ID, intPtr(7))

	if _, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 1})); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	entry, err := env.watchlistRepo.GetByUserAndProduct(user.ID, product.ID)
	if err != nil || entry == nil || entry.AutoAdded || entry.CustomThreshold == nil || *entry.CustomThreshold != 7 {
		t.Fatalf("explicit entry must be preserved: %+v err=%v", entry, err)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Rock Candy", 1)
	user := env.createUser(t, "alice", true)

	_, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 2}))
	var shortage *InsufficientStockError
	if !errors.As(err, &shortage) || !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if len(shortage.Items) != 1 || shortage.Items[0].Available != 1 || shortage.Items[0].Requested != 2 {
		t.Fatalf("unexpected shortage: %+v", shortage.Items)
	}
	if !strings.Contains(shortage.Items[0].Message(), "Rock Candy") {
		t.Fatalf("shortage message should name the product")
	}
	if env.stockOf(t, product.ID) != 1 {
		t.Fatalf("stock must not change on failed checkout")
	}
	_, total, err := env.orderRepo.ListByUser(repository.OrderListFilter{UserID: user.ID})
	if err != nil || total != 0 {
		t.Fatalf("no order should be created, total=%d err=%v", total, err)
	}
	if len(env.mailer.all()) != 0 {
		t.Fatalf("failed checkout must not send mail")
	}
}

func TestCheckoutValidation(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	user := env.createUser(t, "alice", true)

	if _, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput()); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got %v", err)
	}
	if _, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: 1, Quantity: 0})); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	input := checkoutInput(CheckoutItem{ProductID: 1, Quantity: 1})
	input.City = "  "
	if _, err := env.orders.Checkout(t.Context(), user.ID, input); !errors.Is(err, ErrShippingInfoRequired) {
		t.Fatalf("expected shipping info required, got %v", err)
	}
	if _, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: 999, Quantity: 1})); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestOrderStatusAdvancesOnRead(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Lollipop", 50)
	user := env.createUser(t, "alice", true)
	order, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	env.mailer.reset()

	view, err := env.orders.GetOrderStatus(user.ID, order.ID)
	if err != nil || view.Status != constants.OrderStatusCreated || view.IsShipped {
		t.Fatalf("fresh order should be created: %+v err=%v", view, err)
	}

	env.clock.Advance(61 * time.Second)
	for i := 0; i < 3; i++ {
		view, err = env.orders.GetOrderStatus(user.ID, order.ID)
		if err != nil || view.Status != constants.OrderStatusShipped || !view.IsShipped {
			t.Fatalf("expected shipped: %+v err=%v", view, err)
		}
	}
	mails := env.mailer.to(user.Email)
	if len(mails) != 1 || !strings.Contains(mails[0].Subject, "has shipped") {
		t.Fatalf("expected one shipped email, got %+v", mails)
	}

	env.clock.Advance(60 * time.Second)
	fetched, err := env.orders.GetOrder(user.ID, order.ID)
	if err != nil || fetched.Status != constants.OrderStatusDelivered || fetched.DeliveredAt == nil {
		t.Fatalf("expected delivered: %+v err=%v", fetched, err)
	}
	if _, err := env.orders.GetOrder(user.ID, order.ID); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	mails = env.mailer.to(user.Email)
	if len(mails) != 2 || !strings.Contains(mails[1].Subject, "has been delivered") {
		t.Fatalf("expected one delivered email, got %+v", mails)
	}
	if !strings.Contains(mails[1].Body, "Flavor of the day:") {
		t.Fatalf("delivered email should include flavor of the day")
	}
}

func TestOrderStatusSkipsShippedWhenOverdue(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Fudge", 50)
	user := env.createUser(t, "alice", true)
	order, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	env.mailer.reset()

	env.clock.Advance(10 * time.Minute)
	orders, total, err := env.orders.ListOrders(repository.OrderListFilter{UserID: user.ID})
	if err != nil || total != 1 {
		t.Fatalf("list failed: total=%d err=%v", total, err)
	}
	if orders[0].ID != order.ID || orders[0].Status != constants.OrderStatusDelivered || orders[0].ShippedAt == nil {
		t.Fatalf("expected delivered with shipped_at set: %+v", orders[0])
	}
	mails := env.mailer.to(user.Email)
	if len(mails) != 1 || !strings.Contains(mails[0].Subject, "has been delivered") {
		t.Fatalf("expected only the delivered email, got %+v", mails)
	}
}

func TestCancelOrderRestoresStockAndNotifiesRestock(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Candy Corn", 2)
	buyer := env.createUser(t, "buyer", true)
	waiter := env.createUser(t, "waiter", true)

	order, err := env.orders.Checkout(t.Context(), buyer.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if env.stockOf(t, product.ID) != 0 {
		t.Fatalf("stock should be sold out")
	}
	if err := env.alertRepo.Create(&models.StockAlert{UserID: waiter.ID, ProductID: product.ID}); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}
	env.mailer.reset()

	cancelled, err := env.orders.CancelOrder(t.Context(), buyer.ID, order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}
	if env.stockOf(t, product.ID) != 2 {
		t.Fatalf("stock should be restored")
	}

	waiterMails := env.mailer.to(waiter.Email)
	if len(waiterMails) != 1 || !strings.Contains(waiterMails[0].Subject, "Back in Stock: Candy Corn") {
		t.Fatalf("waiter should receive restock email, got %+v", waiterMails)
	}
	buyerMails := env.mailer.to(buyer.Email)
	if len(buyerMails) != 1 || buyerMails[0].Subject != "Order "+order.OrderNo+" cancelled" {
		t.Fatalf("buyer should receive cancellation email, got %+v", buyerMails)
	}

	if _, err := env.orders.CancelOrder(t.Context(), buyer.ID, order.ID); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("second cancel should be rejected, got %v", err)
	}
}

func TestCancelOrderRejectedAfterShipping(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Peppermint", 10)
	user := env.createUser(t, "alice", true)
	other := env.createUser(t, "bob", true)
	order, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := env.orders.CancelOrder(t.Context(), other.ID, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other users must not see the order, got %v", err)
	}

	env.clock.Advance(61 * time.Second)
	if _, err := env.orders.CancelOrder(t.Context(), user.ID, order.ID); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("shipped order must not be cancellable, got %v", err)
	}
	if env.stockOf(t, product.ID) != 9 {
		t.Fatalf("stock must stay decremented")
	}
}

func TestRenderInvoice(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Gummy Bears", 10)
	user := env.createUser(t, "alice", true)
	order, err := env.orders.Checkout(t.Context(), user.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	text, err := env.orders.RenderInvoice(user.ID, order.ID)
	if err != nil {
		t.Fatalf("render invoice failed: %v", err)
	}
	if !containsAll(text,
		"INVOICE",
		"Order Number: "+order.OrderNo,
		"Gummy Bears x2 @ $2.50 = $5.00",
		"Total: $5.00",
		"Keanu Reeves",
	) {
		t.Fatalf("unexpected invoice:\n%s", text)
	}
	if _, err := env.orders.RenderInvoice(user.ID+100, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestCancelOrderRestoresExactQuantity(t *testing.T) {
	env := newStoreTestEnv(t, nil)
	product := env.createProduct(t, "Jawbreaker", 7)
	buyer := env.createUser(t, "jaw", true)

	order, err := env.orders.Checkout(t.Context(), buyer.ID, checkoutInput(CheckoutItem{ProductID: product.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if got := env.stockOf(t, product.ID); got != 5 {
		t.Fatalf("expected stock 5 after checkout, got %d", got)
	}
	if _, err := env.orders.CancelOrder(t.Context(), buyer.ID, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := env.stockOf(t, product.ID); got != 7 {
		t.Fatalf("expected stock 7 after cancel, got %d", got)
	}
}
