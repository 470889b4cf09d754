package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func samplePO() *model.PurchaseOrder {
	return &model.PurchaseOrder{
		PONumber:    "PO-20240315-000007",
		VendorName:  "Acme Traders",
		VendorEmail: "sales@acme.test",
		AssetName:   "Laptop",
		UnitPrice:   decimal.NewFromInt(120000),
		Quantity:    2,
	}
}

func TestSendPurchaseOrder(t *testing.T) {
	d := &recordingDialer{}
	m := NewWithDialer(d, config.MailOptions{User: "noreply@registry.test", FromName: "Registry"}, config.CompanyOptions{Name: "Registry Ltd"}, zap.NewNop())

	require.NoError(t, m.SendPurchaseOrder(context.Background(), samplePO(), []byte("%PDF-1.3")))
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"sales@acme.test"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Purchase Order PO-20240315-000007"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `filename="PO-20240315-000007.pdf"`)
}

func TestSendPurchaseOrder_TransportFailure(t *testing.T) {
	d := &recordingDialer{err: errors.New("connection refused")}
	m := NewWithDialer(d, config.MailOptions{}, config.CompanyOptions{}, zap.NewNop())

	err := m.SendPurchaseOrder(context.Background(), samplePO(), nil)
	assert.ErrorContains(t, err, "connection refused")
}

func TestBody(t *testing.T) {
	body := Body(samplePO(), "Registry Ltd")
	assert.Contains(t, body, "Dear Acme Traders")
	assert.Contains(t, body, "2 x Laptop")
	assert.Contains(t, body, "Registry Ltd")
}
