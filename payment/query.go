package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// TradeInfo is the gateway's answer to a trade status query.
type TradeInfo struct {
	MerchantTradeNo string
	TradeNo         string
	TradeStatus     string
	TradeAmt        int
	PaymentDate     string
	PaymentType     string
}

// QueryTradeInfo asks the gateway for the current state of a trade. Calls go
// through the circuit breaker so a failing gateway cannot pile up requests.
func (a *Adapter) QueryTradeInfo(ctx context.Context, merchantTradeNo string) (TradeInfo, error) {
	params := map[string]string{
		"MerchantID":      a.cfg.MerchantID,
		"MerchantTradeNo": merchantTradeNo,
		"TimeStamp":       strconv.FormatInt(time.Now().Unix(), 10),
	}
	params["CheckMacValue"] = a.CheckMacValue(params)

	body, err := a.breaker.Execute(func() (any, error) {
		resp, err := a.client.R().
			SetContext(ctx).
			SetFormData(params).
			Post(a.cfg.QueryURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("payment: trade query failed with status %d: %s", resp.StatusCode(), resp.Body())
		}
		return string(resp.Body()), nil
	})
	if err != nil {
		return TradeInfo{}, err
	}

	// The gateway answers with an urlencoded key-value body.
	values, err := url.ParseQuery(body.(string))
	if err != nil {
		return TradeInfo{}, fmt.Errorf("payment: malformed trade query response: %w", err)
	}

	amt, _ := strconv.Atoi(values.Get("TradeAmt"))
	return TradeInfo{
		MerchantTradeNo: values.Get("MerchantTradeNo"),
		TradeNo:         values.Get("TradeNo"),
		TradeStatus:     values.Get("TradeStatus"),
		TradeAmt:        amt,
		PaymentDate:     values.Get("PaymentDate"),
		PaymentType:     values.Get("PaymentType"),
	}, nil
}
