// Package mailer delivers purchase orders to vendors over SMTP.
package mailer

import (
	"context"
	"fmt"
	"io"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendPurchaseOrder(ctx context.Context, po *model.PurchaseOrder, pdf []byte) error
}

// Dialer is the part of gomail.Dialer the mailer needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	dialer  Dialer
	from    string
	company string
	logger  *zap.Logger
}

func New(cfg config.MailOptions, company config.CompanyOptions, logger *zap.Logger) Mailer {
	return NewWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg, company, logger)
}

func NewWithDialer(d Dialer, cfg config.MailOptions, company config.CompanyOptions, logger *zap.Logger) Mailer {
	from := cfg.User
	if cfg.FromName != "" && cfg.User != "" {
		from = fmt.Sprintf("%q <%s>", cfg.FromName, cfg.User)
	}
	return &smtpMailer{dialer: d, from: from, company: company.Name, logger: logger}
}

func (m *smtpMailer) SendPurchaseOrder(ctx context.Context, po *model.PurchaseOrder, pdf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", po.VendorEmail)
	msg.SetHeader("Subject", Subject(po))
	msg.SetBody("text/plain", Body(po, m.company))
	msg.Attach(po.PONumber+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	m.logger.Info("Sending purchase order",
		zap.String("po_number", po.PONumber),
		zap.String("vendor_email", po.VendorEmail),
		zap.Int("attachment_size", len(pdf)))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send purchase order", zap.String("po_number", po.PONumber), zap.Error(err))
		return fmt.Errorf("send purchase order %s: %w", po.PONumber, err)
	}
	return nil
}

func Subject(po *model.PurchaseOrder) string {
	return "Purchase Order " + po.PONumber
}

func Body(po *model.PurchaseOrder, company string) string {
	return fmt.Sprintf(`Dear %s,

Please find attached purchase order %s for %d x %s.

Kindly confirm receipt of this order and arrange delivery at your earliest convenience.

Regards,
%s
`, po.VendorName, po.PONumber, po.Quantity, po.AssetName, company)
}
