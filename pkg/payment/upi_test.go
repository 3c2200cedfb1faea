package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntentBuildsAllAppLinks(t *testing.T) {
	intent := NewIntent("ORD1700000000000", 1499.5)

	require.Len(t, intent.Links, 4)
	assert.True(t, strings.HasPrefix(intent.Links["any"], "upi://pay?"))
	assert.True(t, strings.HasPrefix(intent.Links["gpay"], "tez://pay?"))
	assert.True(t, strings.HasPrefix(intent.Links["phonepe"], "phonepe://pay?"))
	assert.True(t, strings.HasPrefix(intent.Links["paytm"], "paytmmp://pay?"))
	assert.Equal(t, intent.Links["any"], intent.Link)
}

func TestLinkParameters(t *testing.T) {
	intent := NewIntent("ORD42", 250)

	u, err := url.Parse(intent.Link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "250.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Equal(t, "Order ORD42", q.Get("tn"))
	assert.NotEmpty(t, q.Get("pa"))
	assert.NotEmpty(t, q.Get("pn"))
}
