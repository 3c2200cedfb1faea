// Package payment builds UPI payment intents for online checkout. A link
// is generated per order and handed to the shopper either as an app deep
// link or as a scannable QR image.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/sridharani/designhaven/config"
	"github.com/sridharani/designhaven/pkg/http"
	"github.com/sridharani/designhaven/pkg/logger"
)

// App schemes for the common Indian UPI apps. "any" uses the generic
// scheme, which lets the handset pick an installed handler.
var appSchemes = map[string]string{
	"any":     "upi",
	"gpay":    "tez",
	"phonepe": "phonepe",
	"paytm":   "paytmmp",
}

// Intent is one payable UPI request tied to an order.
type Intent struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Link    string  `json:"link"`
	// Links maps app name to its deep link variant.
	Links map[string]string `json:"links"`
}

// NewIntent builds the payment intent for an order total.
func NewIntent(orderID string, amount float64) Intent {
	intent := Intent{
		OrderID: orderID,
		Amount:  amount,
		Links:   make(map[string]string, len(appSchemes)),
	}
	for app, scheme := range appSchemes {
		intent.Links[app] = buildLink(scheme, orderID, amount)
	}
	intent.Link = intent.Links["any"]
	return intent
}

// buildLink renders one deep link: <scheme>://pay?pa=...&pn=...&am=...
func buildLink(scheme, orderID string, amount float64) string {
	q := url.Values{}
	q.Set("pa", config.UPIPayee())
	q.Set("pn", config.UPIMerchant())
	q.Set("am", strconv.FormatFloat(amount, 'f', 2, 64))
	q.Set("cu", "INR")
	q.Set("tn", "Order "+orderID)
	return fmt.Sprintf("%s://pay?%s", scheme, q.Encode())
}

// qrAPI is the hosted QR renderer used when local generation fails.
const qrAPI = "https://api.qrserver.com/v1/create-qr-code/"

// QR returns a PNG encoding of the intent's generic link. Generation is
// attempted locally first, then via the hosted renderer. When both fail
// the raw link is returned with ok=false so the caller can show it as
// copyable text instead of an image.
func (i Intent) QR(ctx context.Context, size int) (png []byte, ok bool) {
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(i.Link, qrcode.Medium, size)
	if err == nil {
		return png, true
	}
	logger.Warn("payment: local QR generation failed, trying hosted renderer", "error", err)

	resp, rerr := http.Get(qrAPI + "?size=" + fmt.Sprintf("%dx%d", size, size) + "&data=" + url.QueryEscape(i.Link)).
		WithContext(ctx).
		Timeout(5 * time.Second).
		Retry(2, 500*time.Millisecond).
		Send()
	if rerr == nil && resp.OK() {
		return resp.Raw, true
	}
	logger.Error("payment: hosted QR renderer failed, falling back to plain link", "error", rerr)

	return []byte(i.Link), false
}
