package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	notifmodels "inventory-backend/internal/apps/notification/models"
	notifservice "inventory-backend/internal/apps/notification/service"
	productmodels "inventory-backend/internal/apps/product/models"
	productservice "inventory-backend/internal/apps/product/service"
	"inventory-backend/internal/apps/report/models"
)

const (
	productReportSubject    = "Inventory Product Report"
	productReportAttachment = "product_report.csv"
	lowStockSubject         = "Inventory Low Stock Alert"
	allStockedMessage       = "All products are sufficiently stocked."
)

var (
	// ErrNoProducts is returned when there is nothing to report
	ErrNoProducts = errors.New("no products available for report")
	// ErrDeliveryFailed wraps transport failures while sending a report
	ErrDeliveryFailed = errors.New("failed to deliver report")
)

// ProductSource is the read side of the product store used for reports
type ProductSource interface {
	FindAll(ctx context.Context) ([]productmodels.Product, error)
	FindLowStock(ctx context.Context) ([]productmodels.Product, error)
}

// ReportService defines business logic for emailed inventory reports
type ReportService interface {
	SendProductReport(ctx context.Context, to string) (*models.ReportResponse, error)
	SendLowStockAlert(ctx context.Context, to string) (*models.ReportResponse, error)
}

// reportService implements ReportService
type reportService struct {
	products ProductSource
	notifier notifservice.Notifier
	log      *slog.Logger
}

// NewReportService creates a new instance of ReportService
func NewReportService(products ProductSource, notifier notifservice.Notifier, log *slog.Logger) ReportService {
	return &reportService{
		products: products,
		notifier: notifier,
		log:      log.With(slog.String("service", "report")),
	}
}

// SendProductReport emails every product as a CSV attachment
func (s *reportService) SendProductReport(ctx context.Context, to string) (*models.ReportResponse, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	var csv bytes.Buffer
	if err := productservice.WriteCSV(&csv, products); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	msg := notifmodels.Message{
		To:      to,
		Subject: productReportSubject,
		Body: fmt.Sprintf("Hello,\n\nAttached is the latest inventory report from the database (%d products).\n\nRegards,\nInventory System",
			len(products)),
		Attachments: []notifmodels.Attachment{{Name: productReportAttachment, Data: csv.Bytes()}},
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.log.Info("product_report_sent", slog.String("to", to), slog.Int("products", len(products)))
	return &models.ReportResponse{
		Sent:      true,
		Recipient: to,
		Products:  len(products),
		Message:   "Product report sent.",
	}, nil
}

// SendLowStockAlert emails one line per product at or below its threshold.
// Nothing is sent when every product is sufficiently stocked.
func (s *reportService) SendLowStockAlert(ctx context.Context, to string) (*models.ReportResponse, error) {
	low, err := s.products.FindLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	if len(low) == 0 {
		s.log.Info("low_stock_alert_skipped", slog.String("reason", "all products stocked"))
		return &models.ReportResponse{Sent: false, Message: allStockedMessage}, nil
	}

	msg := notifmodels.Message{
		To:      to,
		Subject: lowStockSubject,
		Body:    LowStockBody(low),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.log.Info("low_stock_alert_sent", slog.String("to", to), slog.Int("products", len(low)))
	return &models.ReportResponse{
		Sent:      true,
		Recipient: to,
		Products:  len(low),
		Message:   fmt.Sprintf("Low stock alert sent for %d products.", len(low)),
	}, nil
}

// LowStockBody renders the alert text, one product per line
func LowStockBody(products []productmodels.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "LOW STOCK: %s (Qty: %d, Threshold: %d)\n", p.Name, p.Quantity, p.Threshold)
	}
	return b.String()
}
