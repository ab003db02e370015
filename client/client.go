// Package client is the Go SDK for the bakery storefront API. It owns the
// client-side cart store: one interface over two interchangeable persistence
// backends (in-process for anonymous visitors, REST for signed-in users),
// the merge performed on login, and the request lifecycle every call goes
// through.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kir4che/mern-ecommerce-website-sub000/cartsvc"
)

var (
	// ErrRequestFailed covers network and server failures; the operation may
	// be retried and the previous cart state is untouched.
	ErrRequestFailed = errors.New("client: request failed, please retry")

	// ErrCartCorrupted covers malformed state from storage or the API; it is
	// unrecoverable without a full reload.
	ErrCartCorrupted = errors.New("client: cart state corrupted, please refresh")

	// ErrThrottled reports a call dropped by the add-to-cart throttle window.
	ErrThrottled = errors.New("client: call dropped by throttle window")
)

// Client is the REST transport shared by the cart backends.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(15 * time.Second),
	}
}

// SetToken installs the bearer token after login. An empty token returns the
// client to the anonymous state.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Authenticated reports whether a login token is installed.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	c.mu.RLock()
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	c.mu.RUnlock()
	return req
}

// Product fetches a live product snapshot, used by the local backend to
// re-hydrate anonymous cart lines on every read.
func (c *Client) Product(ctx context.Context, id uint) (cartsvc.ProductInfo, error) {
	var body struct {
		Product struct {
			ID           uint   `json:"ID"`
			Title        string `json:"title"`
			Price        int    `json:"price"`
			ImageUrl     string `json:"imageUrl"`
			CountInStock int    `json:"countInStock"`
		} `json:"product"`
	}
	resp, err := c.request(ctx).SetResult(&body).Get(fmt.Sprintf("/products/%d", id))
	if err != nil {
		return cartsvc.ProductInfo{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() == 404 {
		return cartsvc.ProductInfo{}, ErrProductGone
	}
	if resp.IsError() {
		return cartsvc.ProductInfo{}, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode())
	}
	return cartsvc.ProductInfo{
		ID:           body.Product.ID,
		Title:        body.Product.Title,
		Price:        body.Product.Price,
		ImageUrl:     body.Product.ImageUrl,
		CountInStock: body.Product.CountInStock,
	}, nil
}

// ErrProductGone means a product referenced by a cart line no longer exists.
var ErrProductGone = errors.New("client: product no longer exists")
