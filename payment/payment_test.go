package payment

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAdapter() *Adapter {
	return NewAdapter(Config{
		MerchantID:    "2000132",
		HashKey:       "5294y06JbISpM5x9",
		HashIV:        "v77hoKGq4kWxNNIS",
		ReturnURL:     "https://bakery.example.com/payment/callback",
		ClientBackURL: "https://bakery.example.com/orders",
	})
}

func testTradeRequest() TradeRequest {
	return TradeRequest{
		MerchantTradeNo: "BK2024050100000042",
		TotalAmount:     250,
		TradeDesc:       "kir4che bakery order",
		ItemNames:       []string{"Sourdough x2", "Croissant x1"},
		ChoosePayment:   "Credit",
		CustomField1:    "42",
		TradeDate:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
	}
}

// Regression check against a precomputed signature. The normalization
// sequence (key sort, HashKey/HashIV wrapping, URL-encoding, lowercasing,
// escape substitutions, SHA-256, uppercase hex) is an external contract and
// must stay bit-exact.
func TestCheckMacValueGolden(t *testing.T) {
	a := testAdapter()
	params := a.BuildTradeParams(testTradeRequest())

	const want = "81196F6F5A41786C0BF3A919DB969640A8A517BED381E9EF85632176548AB5D7"
	assert.Equal(t, want, params["CheckMacValue"])
}

func TestCheckMacValueIsDeterministic(t *testing.T) {
	a := testAdapter()
	first := a.BuildTradeParams(testTradeRequest())
	second := a.BuildTradeParams(testTradeRequest())
	assert.Equal(t, first["CheckMacValue"], second["CheckMacValue"])
}

func TestCheckMacValueExcludesItself(t *testing.T) {
	a := testAdapter()
	params := a.BuildTradeParams(testTradeRequest())

	// Recomputing over the signed map must reproduce the same value.
	assert.Equal(t, params["CheckMacValue"], a.CheckMacValue(params))
}

func TestBuildTradeParams(t *testing.T) {
	a := testAdapter()
	params := a.BuildTradeParams(testTradeRequest())

	assert.Equal(t, "2000132", params["MerchantID"])
	assert.Equal(t, "aio", params["PaymentType"])
	assert.Equal(t, "250", params["TotalAmount"])
	assert.Equal(t, "Sourdough x2#Croissant x1", params["ItemName"])
	assert.Equal(t, "2024/05/01 10:00:00", params["MerchantTradeDate"])
	assert.Equal(t, "42", params["CustomField1"])
	assert.NotEmpty(t, params["CheckMacValue"])
}

func callbackForm(a *Adapter) url.Values {
	params := map[string]string{
		"MerchantID":      "2000132",
		"MerchantTradeNo": "BK2024050100000042",
		"TradeNo":         "2405011000001234",
		"RtnCode":         "1",
		"RtnMsg":          "Succeeded",
		"TradeAmt":        "250",
		"PaymentDate":     "2024/05/01 10:03:21",
		"CustomField1":    "42",
	}
	params["CheckMacValue"] = a.CheckMacValue(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return form
}

func TestVerifyCallback(t *testing.T) {
	a := testAdapter()
	cb, err := a.VerifyCallback(callbackForm(a))
	require.NoError(t, err)

	assert.True(t, cb.Succeeded)
	assert.Equal(t, "BK2024050100000042", cb.MerchantTradeNo)
	assert.Equal(t, "42", cb.OrderID)
	assert.Equal(t, 2024, cb.PaymentDate.Year())
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	a := testAdapter()

	form := callbackForm(a)
	form.Set("TradeAmt", "1")
	_, err := a.VerifyCallback(form)
	assert.ErrorIs(t, err, ErrBadChecksum)

	form = callbackForm(a)
	form.Del("CheckMacValue")
	_, err = a.VerifyCallback(form)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestVerifyCallbackFailureCode(t *testing.T) {
	a := testAdapter()
	params := map[string]string{
		"MerchantTradeNo": "BK2024050100000042",
		"RtnCode":         "10200073",
		"RtnMsg":          "Trade failed",
		"CustomField1":    "42",
	}
	params["CheckMacValue"] = a.CheckMacValue(params)
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	cb, err := a.VerifyCallback(form)
	require.NoError(t, err)
	assert.False(t, cb.Succeeded)
}
