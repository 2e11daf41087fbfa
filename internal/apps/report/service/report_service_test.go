package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	notifmodels "inventory-backend/internal/apps/notification/models"
	productmodels "inventory-backend/internal/apps/product/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	all []productmodels.Product
	err error
}

func (f fakeSource) FindAll(context.Context) ([]productmodels.Product, error) {
	return f.all, f.err
}

func (f fakeSource) FindLowStock(context.Context) ([]productmodels.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var low []productmodels.Product
	for _, p := range f.all {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

type fakeNotifier struct {
	sent []notifmodels.Message
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, msg notifmodels.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func newTestService(source ProductSource, notifier *fakeNotifier) ReportService {
	return NewReportService(source, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var stock = []productmodels.Product{
	{ID: 1, Name: "Widget", Category: "Tools", Quantity: 10, Price: 2.5, Threshold: 2},
	{ID: 2, Name: "Bolt", Category: "Hardware", Quantity: 3, Price: 0.1, Threshold: 5},
	{ID: 3, Name: "Nut", Category: "Hardware", Quantity: 0, Price: 0.05, Threshold: 0},
}

func TestSendProductReport(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(fakeSource{all: stock}, notifier)

	resp, err := svc.SendProductReport(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, 3, resp.Products)

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, "admin@example.com", msg.To)
	assert.Equal(t, "Inventory Product Report", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "product_report.csv", msg.Attachments[0].Name)
	assert.Contains(t, string(msg.Attachments[0].Data), "ID,Name,Category,Quantity,Price,Threshold\n1,Widget,Tools,10,2.50,2\n")
}

func TestSendProductReportErrors(t *testing.T) {
	_, err := newTestService(fakeSource{}, &fakeNotifier{}).SendProductReport(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrNoProducts)

	_, err = newTestService(fakeSource{all: stock}, &fakeNotifier{err: errors.New("auth failed")}).SendProductReport(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	dbErr := errors.New("db down")
	_, err = newTestService(fakeSource{err: dbErr}, &fakeNotifier{}).SendProductReport(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, dbErr)
}

func TestSendLowStockAlert(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(fakeSource{all: stock}, notifier)

	resp, err := svc.SendLowStockAlert(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, 2, resp.Products)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Inventory Low Stock Alert", notifier.sent[0].Subject)
	assert.Equal(t,
		"LOW STOCK: Bolt (Qty: 3, Threshold: 5)\nLOW STOCK: Nut (Qty: 0, Threshold: 0)\n",
		notifier.sent[0].Body)
}

func TestSendLowStockAlertAllStocked(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(fakeSource{all: stock[:1]}, notifier)

	resp, err := svc.SendLowStockAlert(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.False(t, resp.Sent)
	assert.Equal(t, "All products are sufficiently stocked.", resp.Message)
	assert.Empty(t, notifier.sent)
}

func TestSendLowStockAlertDeliveryFailure(t *testing.T) {
	svc := newTestService(fakeSource{all: stock}, &fakeNotifier{err: errors.New("timeout")})

	_, err := svc.SendLowStockAlert(context.Background(), "admin@example.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}
