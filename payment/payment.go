// Package payment builds signed requests for the hosted payment gateway and
// verifies the asynchronous callbacks it delivers.
package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	// Literal acknowledgment bodies the gateway polls for. It re-delivers the
	// callback until it reads AckSuccess, so any internal processing failure
	// must answer AckFailure to get a retry instead of losing the notification.
	AckSuccess = "1"
	AckFailure = "0"

	// RtnCode the gateway sends for a successful trade.
	rtnCodeSuccess = 1

	tradeDateLayout = "2006/01/02 15:04:05"
)

var (
	// ErrBadChecksum means the callback CheckMacValue did not verify; the
	// payload must not be trusted.
	ErrBadChecksum = errors.New("payment: callback checksum mismatch")

	// ErrMissingField means the callback lacked a required parameter.
	ErrMissingField = errors.New("payment: callback missing required field")
)

type Config struct {
	MerchantID    string
	HashKey       string
	HashIV        string
	CheckoutURL   string
	QueryURL      string
	ReturnURL     string
	ClientBackURL string
}

// LoadConfig reads the gateway settings from the environment.
func LoadConfig() Config {
	return Config{
		MerchantID:    os.Getenv("PAYMENT_MERCHANT_ID"),
		HashKey:       os.Getenv("PAYMENT_HASH_KEY"),
		HashIV:        os.Getenv("PAYMENT_HASH_IV"),
		CheckoutURL:   os.Getenv("PAYMENT_CHECKOUT_URL"),
		QueryURL:      os.Getenv("PAYMENT_QUERY_URL"),
		ReturnURL:     os.Getenv("PAYMENT_RETURN_URL"),
		ClientBackURL: os.Getenv("PAYMENT_CLIENT_BACK_URL"),
	}
}

type Adapter struct {
	cfg     Config
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "payment-gateway",
			MaxRequests: 3,
			Interval:    15 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}),
	}
}

// TradeRequest describes one outbound checkout trade.
type TradeRequest struct {
	MerchantTradeNo string
	TotalAmount     int
	TradeDesc       string
	ItemNames       []string
	ChoosePayment   string
	CustomField1    string
	TradeDate       time.Time
}

// BuildTradeParams produces the flat, signed parameter map the client posts
// to the gateway's hosted checkout page.
func (a *Adapter) BuildTradeParams(req TradeRequest) map[string]string {
	params := map[string]string{
		"MerchantID":        a.cfg.MerchantID,
		"MerchantTradeNo":   req.MerchantTradeNo,
		"MerchantTradeDate": req.TradeDate.Format(tradeDateLayout),
		"PaymentType":       "aio",
		"TotalAmount":       strconv.Itoa(req.TotalAmount),
		"TradeDesc":         req.TradeDesc,
		"ItemName":          strings.Join(req.ItemNames, "#"),
		"ReturnURL":         a.cfg.ReturnURL,
		"ClientBackURL":     a.cfg.ClientBackURL,
		"ChoosePayment":     req.ChoosePayment,
		"EncryptType":       "1",
		"CustomField1":      req.CustomField1,
	}
	params["CheckMacValue"] = a.CheckMacValue(params)
	return params
}

// gatewayEscapes restores the percent-escapes the gateway's encoder leaves as
// literal characters. Applied after URL-encoding and lowercasing.
var gatewayEscapes = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
)

// CheckMacValue computes the gateway signature over a parameter map. The
// normalization sequence is a bit-exact external contract: sort keys, wrap
// with HashKey/HashIV, URL-encode (space as "+"), lowercase, restore the
// gateway's literal characters, SHA-256, uppercase hex.
func (a *Adapter) CheckMacValue(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "CheckMacValue" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(a.cfg.HashKey)
	for _, k := range keys {
		b.WriteString("&")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(a.cfg.HashIV)

	encoded := strings.ToLower(url.QueryEscape(b.String()))
	encoded = gatewayEscapes.Replace(encoded)

	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Callback is a verified asynchronous payment notification.
type Callback struct {
	MerchantTradeNo string
	TradeNo         string
	RtnCode         int
	RtnMsg          string
	OrderID         string
	PaymentDate     time.Time
	Succeeded       bool
}

// VerifyCallback authenticates an inbound gateway POST. The checksum is the
// only trust anchor on this endpoint; a payload that fails verification is
// rejected before any field is read.
func (a *Adapter) VerifyCallback(form url.Values) (Callback, error) {
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}

	mac := params["CheckMacValue"]
	if mac == "" {
		return Callback{}, fmt.Errorf("%w: CheckMacValue", ErrMissingField)
	}
	if !strings.EqualFold(mac, a.CheckMacValue(params)) {
		return Callback{}, ErrBadChecksum
	}

	tradeNo := params["MerchantTradeNo"]
	if tradeNo == "" {
		return Callback{}, fmt.Errorf("%w: MerchantTradeNo", ErrMissingField)
	}

	rtnCode, err := strconv.Atoi(params["RtnCode"])
	if err != nil {
		return Callback{}, fmt.Errorf("%w: RtnCode", ErrMissingField)
	}

	cb := Callback{
		MerchantTradeNo: tradeNo,
		TradeNo:         params["TradeNo"],
		RtnCode:         rtnCode,
		RtnMsg:          params["RtnMsg"],
		OrderID:         params["CustomField1"],
		Succeeded:       rtnCode == rtnCodeSuccess,
	}
	if raw := params["PaymentDate"]; raw != "" {
		if ts, err := time.ParseInLocation(tradeDateLayout, raw, time.Local); err == nil {
			cb.PaymentDate = ts
		}
	}
	return cb, nil
}
