package notify

import (
	"context"
	"strings"

	"storefront/internal/structs"
	"storefront/internal/texts"
	"storefront/pkg/config"
	"storefront/pkg/email"
	"storefront/pkg/logger"
	"storefront/pkg/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
		Mail   email.Sender `optional:"true"`
	}

	// Notifier announces placed orders to the shop admins and the customer.
	// It never fails the caller; delivery problems are only logged.
	Notifier interface {
		OrderPlaced(ctx context.Context, order structs.PlacedOrder)
	}

	sender interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	telegram struct {
		bot    sender
		chatID int64
		logger logger.Logger
	}

	receipt struct {
		mail   email.Sender
		brand  string
		logger logger.Logger
	}

	multi []Notifier

	nop struct{}
)

func New(p Params) Notifier {
	var out multi
	if admin := newAdmin(p); admin != nil {
		out = append(out, admin)
	}
	if p.Mail != nil && p.Mail.Enabled() {
		out = append(out, newReceipt(p.Mail, p.Config.GetString("checkout.brand_name"), p.Logger))
	}

	switch len(out) {
	case 0:
		return nop{}
	case 1:
		return out[0]
	}
	return out
}

func newAdmin(p Params) Notifier {
	token := p.Config.GetString("notify.bot_token")
	chatID := p.Config.GetInt64("notify.admin_chat_id")
	if token == "" || chatID == 0 {
		p.Logger.Info(context.Background(), "admin notifications disabled")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		p.Logger.Error(context.Background(), "telegram bot init failed, admin notifications disabled", zap.Error(err))
		return nil
	}
	return newTelegram(bot, chatID, p.Logger)
}

func newTelegram(bot sender, chatID int64, log logger.Logger) Notifier {
	return &telegram{bot: bot, chatID: chatID, logger: log}
}

func (t *telegram) OrderPlaced(ctx context.Context, order structs.PlacedOrder) {
	msg := tgbotapi.NewMessage(t.chatID, Message(order))
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn(ctx, "admin order notification failed", zap.Error(err), zap.String("local_id", order.LocalID))
	}
}

func newReceipt(mail email.Sender, brand string, log logger.Logger) Notifier {
	return &receipt{mail: mail, brand: brand, logger: log}
}

// OrderPlaced mails the customer a receipt when checkout captured an email.
func (r *receipt) OrderPlaced(ctx context.Context, order structs.PlacedOrder) {
	if order.CustomerEmail == "" {
		return
	}
	err := r.mail.Send(ctx, email.Mail{
		To:      []string{order.CustomerEmail},
		Subject: texts.Format(texts.ReceiptSubject, r.brand),
		Body:    Receipt(order),
	})
	if err != nil {
		r.logger.Warn(ctx, "customer receipt failed", zap.Error(err), zap.String("local_id", order.LocalID))
	}
}

func (m multi) OrderPlaced(ctx context.Context, order structs.PlacedOrder) {
	for _, n := range m {
		n.OrderPlaced(ctx, order)
	}
}

func (nop) OrderPlaced(context.Context, structs.PlacedOrder) {}

func Message(order structs.PlacedOrder) string {
	a := order.ShippingAddress
	return texts.Format(texts.AdminOrderNotify,
		orderRef(order),
		utils.FCurrency(order.TotalPrice),
		order.PaymentMethod,
		a.Address,
		a.Locality,
		a.City,
		a.Pincode,
		a.Phone,
	)
}

func Receipt(order structs.PlacedOrder) string {
	var lines strings.Builder
	for _, item := range order.Items {
		subtotal := item.Price.Mul(decimal.NewFromInt(item.Quantity))
		lines.WriteString(texts.Format(texts.ReceiptLine, item.Quantity, item.Name, utils.FCurrency(subtotal)))
	}
	a := order.ShippingAddress
	return texts.Format(texts.ReceiptBody,
		orderRef(order),
		lines.String(),
		utils.FCurrency(order.TotalPrice),
		order.PaymentMethod,
		strings.Join(nonEmpty(a.Address, a.Locality, a.City, a.Pincode), ", "),
	)
}

func orderRef(order structs.PlacedOrder) string {
	if len(order.OrderIDs) > 0 {
		return strings.Join(order.OrderIDs, ", ")
	}
	return order.LocalID
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
