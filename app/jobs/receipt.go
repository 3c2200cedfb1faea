// Package jobs holds the background work dispatched through the queue.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/pkg/event"
	"github.com/sridharani/designhaven/pkg/logger"
	"github.com/sridharani/designhaven/pkg/queue"
	"github.com/sridharani/designhaven/pkg/resource"
	"github.com/sridharani/designhaven/pkg/storage"
)

// ReceiptJob writes an order receipt to the configured storage disk after
// checkout, off the request path.
type ReceiptJob struct {
	Order models.Order `json:"order"`
}

// ReceiptResource shapes the receipt document.
type ReceiptResource struct{ resource.Base }

func (r *ReceiptResource) ToArray(v interface{}) resource.Map {
	o, ok := v.(models.Order)
	if !ok {
		return resource.Map{}
	}
	lines := make([]resource.Map, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, resource.Map{
			"name":     item.Name,
			"quantity": item.Quantity,
			"price":    item.Price,
			"subtotal": item.Price * float64(item.Quantity),
		})
	}
	return resource.Map{
		"orderId":       o.ID,
		"placedBy":      o.UserID,
		"placedAt":      o.Date,
		"paymentMethod": o.PaymentMethod,
		"status":        o.Status,
		"items":         lines,
		"total":         o.Amount,
		"deliverTo": resource.Map{
			"name":    o.Address.FullName,
			"phone":   o.Address.Phone,
			"city":    o.Address.City,
			"pincode": o.Address.Pincode,
		},
	}
}

func (j ReceiptJob) Handle() error {
	doc := (&ReceiptResource{}).ToArray(j.Order)
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jobs: encode receipt: %w", err)
	}
	path := fmt.Sprintf("receipts/%s.json", j.Order.ID)
	if err := storage.Put(path, raw); err != nil {
		return fmt.Errorf("jobs: store receipt: %w", err)
	}
	logger.Info("receipt stored", "order", j.Order.ID, "path", path)
	return nil
}

// Register wires the job type into the queue and subscribes it to order
// placement. Call once at boot.
func Register() {
	queue.Register("receipt", func() queue.Job { return &ReceiptJob{} })
	event.Listen(services.EventOrderPlaced, func(payload interface{}) {
		order, ok := payload.(models.Order)
		if !ok {
			return
		}
		if err := queue.Dispatch(ReceiptJob{Order: order}); err != nil {
			logger.Error("receipt dispatch failed", "order", order.ID, "error", err)
		}
	})
}
