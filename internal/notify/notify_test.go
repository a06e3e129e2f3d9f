package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/structs"
	"storefront/pkg/config"
	"storefront/pkg/email"
	"storefront/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

type stubSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.err
}

func placed() structs.PlacedOrder {
	return structs.PlacedOrder{
		LocalID:       "local-1",
		OrderIDs:      []string{"o1", "o2"},
		PaymentMethod: structs.PaymentCashOnDelivery,
		TotalPrice:    decimal.NewFromInt(1250),
		ShippingAddress: structs.DeliveryAddress{
			Address: "12 Main Street", Locality: "Market Road", City: "Krishnagiri", Pincode: "635001", Phone: "9876543210",
		},
	}
}

func TestMessage(t *testing.T) {
	msg := Message(placed())
	for _, want := range []string{"o1, o2", "1,250", "cash_on_delivery", "635001", "9876543210"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q does not contain %q", msg, want)
		}
	}
}

func TestTelegram_OrderPlaced(t *testing.T) {
	s := &stubSender{}
	n := newTelegram(s, 42, logger.NewNop())

	n.OrderPlaced(context.Background(), placed())

	if len(s.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(s.sent))
	}
	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	if !ok || msg.ChatID != 42 {
		t.Fatalf("unexpected message %+v", s.sent[0])
	}
}

func TestTelegram_SendErrorIsSwallowed(t *testing.T) {
	n := newTelegram(&stubSender{err: errors.New("blocked")}, 42, logger.NewNop())
	n.OrderPlaced(context.Background(), placed())
}

type stubMail struct {
	enabled bool
	sent    []email.Mail
	err     error
}

func (m *stubMail) Enabled() bool { return m.enabled }

func (m *stubMail) Send(_ context.Context, mail email.Mail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

func TestReceipt(t *testing.T) {
	order := placed()
	order.Items = []structs.OrderItem{
		{ProductID: "p1", Name: "Dosa", Quantity: 2, Price: decimal.NewFromInt(75)},
		{ProductID: "p2", Name: "Coffee", Quantity: 1, Price: decimal.NewFromInt(1100)},
	}

	body := Receipt(order)
	for _, want := range []string{"o1, o2", "2 x Dosa", "₹150", "1 x Coffee", "₹1,100", "12 Main Street, Market Road, Krishnagiri, 635001"} {
		if !strings.Contains(body, want) {
			t.Fatalf("receipt %q does not contain %q", body, want)
		}
	}
}

func TestReceipt_OrderPlaced(t *testing.T) {
	mail := &stubMail{enabled: true}
	n := newReceipt(mail, "Storefront", logger.NewNop())

	n.OrderPlaced(context.Background(), placed())
	if len(mail.sent) != 0 {
		t.Fatal("no receipt without a customer email")
	}

	order := placed()
	order.CustomerEmail = "asha@example.com"
	n.OrderPlaced(context.Background(), order)
	if len(mail.sent) != 1 || mail.sent[0].To[0] != "asha@example.com" || mail.sent[0].Subject != "Your Storefront order" {
		t.Fatalf("unexpected mail %+v", mail.sent)
	}

	mail.err = errors.New("smtp down")
	n.OrderPlaced(context.Background(), order)
}

func TestNew_Fanout(t *testing.T) {
	cfg := config.NewConfig()

	if _, ok := New(Params{Config: cfg, Logger: logger.NewNop()}).(nop); !ok {
		t.Fatal("nothing configured must give the no-op notifier")
	}
	if _, ok := New(Params{Config: cfg, Logger: logger.NewNop(), Mail: &stubMail{}}).(nop); !ok {
		t.Fatal("a disabled mailer must not be used")
	}
	if _, ok := New(Params{Config: cfg, Logger: logger.NewNop(), Mail: &stubMail{enabled: true}}).(*receipt); !ok {
		t.Fatal("an enabled mailer alone must give the receipt notifier")
	}

	admin := &stubSender{}
	mail := &stubMail{enabled: true}
	order := placed()
	order.CustomerEmail = "asha@example.com"
	multi{newTelegram(admin, 1, logger.NewNop()), newReceipt(mail, "Storefront", logger.NewNop())}.OrderPlaced(context.Background(), order)
	if len(admin.sent) != 1 || len(mail.sent) != 1 {
		t.Fatalf("fan-out reached %d admins and %d customers", len(admin.sent), len(mail.sent))
	}
}
