package service

import (
	"fmt"
	"strings"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
)

// MailContent 邮件主题与正文
type MailContent struct {
	Subject string
	Body    string
}

// SweepLowStockLine 批量低库存邮件中的一行
type SweepLowStockLine struct {
	ProductName string
	Stock       int
	Threshold   int
}

var deliveredFlavors = []string{
	"Sour Cherry",
	"Blue Raspberry",
	"Watermelon Twist",
	"Salted Caramel",
	"Green Apple",
	"Cotton Candy",
	"Peppermint Swirl",
}

type mailTemplates struct {
	storeName string
	baseURL   string
}

func newMailTemplates(cfg config.StoreConfig) mailTemplates {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Keanu's Candy Store"
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "http://localhost:8000"
	}
	return mailTemplates{storeName: name, baseURL: base}
}

func (t mailTemplates) productURL(productID uint) string {
	return fmt.Sprintf("%s/candy/%d/", t.baseURL, productID)
}

func (t mailTemplates) footer(manage string) string {
	return "\n---\nTo manage your " + manage + ", visit your account page.\n"
}

func (t mailTemplates) lowStockWatchlist(username string, product *models.Product, stock, threshold int) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("An item on your watchlist is running low on stock:\n\n")
	fmt.Fprintf(&b, "  • %s - Only %d left! (Your alert threshold: %d)\n\n", product.Name, stock, threshold)
	b.WriteString("Order now before it's gone!\n\n")
	fmt.Fprintf(&b, "Visit %s: %s\n", t.storeName, t.productURL(product.ID))
	b.WriteString(t.footer("watchlist and notification preferences"))
	return MailContent{
		Subject: fmt.Sprintf("⚠️ Low Stock Alert: %s", product.Name),
		Body:    b.String(),
	}
}

func (t mailTemplates) lowStockHistory(username string, product *models.Product, stock, threshold int) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("You previously purchased an item that is now running low on stock:\n\n")
	fmt.Fprintf(&b, "  • %s - Only %d left! (Alert threshold: %d)\n\n", product.Name, stock, threshold)
	b.WriteString("Stock up again before it's gone!\n\n")
	fmt.Fprintf(&b, "Visit %s: %s\n", t.storeName, t.productURL(product.ID))
	b.WriteString(t.footer("notification preferences"))
	return MailContent{
		Subject: fmt.Sprintf("⚠️ Low Stock Alert: %s", product.Name),
		Body:    b.String(),
	}
}

func (t mailTemplates) restock(username string, product *models.Product, stock int) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("Good news! An item you requested is back in stock:\n\n")
	fmt.Fprintf(&b, "  • %s - %d available now!\n\n", product.Name, stock)
	b.WriteString("Order now before it sells out again!\n\n")
	fmt.Fprintf(&b, "Visit %s: %s\n", t.storeName, t.productURL(product.ID))
	b.WriteString(t.footer("notifications"))
	return MailContent{
		Subject: fmt.Sprintf("✅ Back in Stock: %s", product.Name),
		Body:    b.String(),
	}
}

func (t mailTemplates) restockBroadcast(username string, product *models.Product, stock int) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("Good news! A candy is back in stock:\n\n")
	fmt.Fprintf(&b, "  • %s - %d available now!\n\n", product.Name, stock)
	fmt.Fprintf(&b, "Visit %s: %s\n", t.storeName, t.productURL(product.ID))
	b.WriteString(t.footer("restock notifications"))
	return MailContent{
		Subject: fmt.Sprintf("✅ Back in Stock: %s", product.Name),
		Body:    b.String(),
	}
}

func (t mailTemplates) sweepLowStock(username string, lines []SweepLowStockLine) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("Some items on your watchlist are running low on stock:\n\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "  • %s - Only %d left! (Alert threshold: %d)\n", line.ProductName, line.Stock, line.Threshold)
	}
	b.WriteString("\nOrder now before they're gone!\n\n")
	fmt.Fprintf(&b, "Visit %s: %s/\n", t.storeName, t.baseURL)
	b.WriteString(t.footer("watchlist and notification preferences"))
	return MailContent{
		Subject: "⚠️ Low Stock Alert - Items You're Watching",
		Body:    b.String(),
	}
}

func (t mailTemplates) sweepRestock(username string, products []models.Product) MailContent {
	subject := fmt.Sprintf("✅ %d Items Back in Stock!", len(products))
	if len(products) == 1 {
		subject = fmt.Sprintf("✅ Back in Stock: %s", products[0].Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	b.WriteString("Good news! Items you requested are back in stock:\n\n")
	for _, product := range products {
		fmt.Fprintf(&b, "  • %s - %d in stock\n", product.Name, product.Stock)
	}
	b.WriteString("\nOrder now before they sell out again!\n\n")
	fmt.Fprintf(&b, "Visit %s: %s/\n", t.storeName, t.baseURL)
	b.WriteString(t.footer("notifications"))
	return MailContent{Subject: subject, Body: b.String()}
}

// flavorOfTheDay 按订单号稳定挑选一个口味
func flavorOfTheDay(orderID uint) string {
	return deliveredFlavors[int(orderID%uint(len(deliveredFlavors)))]
}

func (t mailTemplates) orderStatus(order *models.Order, status string) MailContent {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", strings.TrimSpace(order.FullName))
	var subject string
	switch status {
	case constants.OrderStatusShipped:
		subject = fmt.Sprintf("📦 Your order %s has shipped", order.OrderNo)
		b.WriteString("Your candy is on its way!\n\n")
	case constants.OrderStatusDelivered:
		subject = fmt.Sprintf("🍬 Your order %s has been delivered", order.OrderNo)
		b.WriteString("Your order has been delivered. Enjoy your treats!\n\n")
		fmt.Fprintf(&b, "Flavor of the day: %s\n\n", flavorOfTheDay(order.ID))
	case constants.OrderStatusCancelled:
		subject = fmt.Sprintf("Order %s cancelled", order.OrderNo)
		b.WriteString("Your order has been cancelled and the items were returned to our shelves.\n\n")
	default:
		subject = fmt.Sprintf("Order Confirmation: %s", order.OrderNo)
		b.WriteString("Thank you for your order! We have received it and it is being prepared.\n\n")
	}
	fmt.Fprintf(&b, "Order No: %s\n", order.OrderNo)
	if len(order.Items) > 0 {
		b.WriteString("Items:\n")
		for _, item := range order.Items {
			fmt.Fprintf(&b, "  • %s x%d - $%s\n", item.ProductName, item.Quantity, item.LineTotal().String())
		}
	}
	fmt.Fprintf(&b, "Total: $%s\n", order.TotalPrice.String())
	if status == constants.OrderStatusCreated || status == constants.OrderStatusShipped {
		fmt.Fprintf(&b, "\nShipping to:\n  %s\n  %s\n  %s %s\n", order.FullName, order.Address, order.City, order.ZipCode)
	}
	fmt.Fprintf(&b, "\nVisit %s: %s/orders/%d/\n", t.storeName, t.baseURL, order.ID)
	return MailContent{Subject: subject, Body: b.String()}
}
