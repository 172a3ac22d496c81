// Package storefront is the hosted commerce backend gateway. It speaks the
// Storefront GraphQL API over HTTP and reshapes the edge/node payloads into
// the models the rest of the service uses.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const (
	DefaultAPIVersion = "2024-10"
	tokenHeader       = "X-Shopify-Storefront-Access-Token"
	maxErrorBody      = 2048
)

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	gql        *graphql.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithEndpoint overrides the URL derived from the shop domain.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

func NewClient(domain, token, apiVersion string, opts ...Option) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	domain = strings.TrimSuffix(strings.TrimPrefix(domain, "https://"), "/")
	c := &Client{
		endpoint:   fmt.Sprintf("https://%s/api/%s/graphql.json", domain, apiVersion),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Transport = recorder{next: hc.Transport}
	c.gql = graphql.NewClient(c.endpoint, graphql.WithHTTPClient(&hc))
	return c
}

var _ gateway.Gateway = (*Client)(nil)

// exchange is what the recorder saw of one response. The graphql client only
// reports the first error message and drops the status code.
type exchange struct {
	status  int
	snippet string
}

type exchangeKey struct{}

// recorder notes the status of every response and keeps the start of any
// non-2xx body, leaving the response itself intact.
type recorder struct {
	next http.RoundTripper
}

func (r recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	next := r.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	ex, ok := req.Context().Value(exchangeKey{}).(*exchange)
	if !ok {
		return resp, nil
	}
	ex.status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		ex.snippet = strings.TrimSpace(string(head))
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), resp.Body), resp.Body}
	}
	return resp, nil
}

// do runs one operation and decodes its data member into out.
func (c *Client) do(ctx context.Context, op, query string, variables map[string]any, out any) error {
	req := graphql.NewRequest(query)
	for k, v := range variables {
		req.Var(k, v)
	}
	req.Header.Set(tokenHeader, c.token)

	ex := &exchange{}
	var data json.RawMessage
	start := time.Now()
	err := c.gql.Run(context.WithValue(ctx, exchangeKey{}, ex), req, &data)

	c.logger.Debug("storefront call",
		zap.String("op", op),
		zap.Int("status", ex.status),
		zap.Duration("took", time.Since(start)))

	if ex.status != 0 && (ex.status < 200 || ex.status > 299) {
		msg := ex.snippet
		if msg == "" {
			msg = http.StatusText(ex.status)
		}
		return &gateway.TransportError{Op: op, StatusCode: ex.status, Err: errors.New(msg)}
	}
	if err != nil {
		return &gateway.TransportError{Op: op, StatusCode: ex.status, Err: err}
	}
	if len(data) == 0 || string(data) == "null" {
		return &gateway.TransportError{Op: op, StatusCode: ex.status, Err: errors.New("response had no data")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &gateway.TransportError{Op: op, StatusCode: ex.status, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func (c *Client) ProductByHandle(ctx context.Context, handle string) (models.RawProduct, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.do(ctx, "getProduct", getProductQuery, map[string]any{"handle": handle}, &data); err != nil {
		return models.RawProduct{}, err
	}
	if data.Product == nil {
		return models.RawProduct{}, gateway.ErrProductNotFound
	}
	return data.Product.raw(), nil
}

func (c *Client) Products(ctx context.Context, page gateway.PageRequest) (gateway.ProductPage, error) {
	vars := map[string]any{"first": gateway.ClampPageSize(page.First)}
	if page.After != "" {
		vars["after"] = page.After
	}
	var data struct {
		Products productsConnection `json:"products"`
	}
	if err := c.do(ctx, "getProducts", getProductsQuery, vars, &data); err != nil {
		return gateway.ProductPage{}, err
	}
	return gateway.ProductPage{
		Products:    data.Products.raws(),
		EndCursor:   data.Products.PageInfo.EndCursor,
		HasNextPage: data.Products.PageInfo.HasNextPage,
	}, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string, first int) ([]models.RawProduct, error) {
	var data struct {
		Products productsConnection `json:"products"`
	}
	vars := map[string]any{"first": gateway.ClampPageSize(first), "query": query}
	if err := c.do(ctx, "searchProducts", searchProductsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Products.raws(), nil
}

func (c *Client) CartByID(ctx context.Context, cartID string) (*models.Cart, error) {
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	if err := c.do(ctx, "getCart", getCartQuery, map[string]any{"cartId": cartID}, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, gateway.ErrCartNotFound
	}
	return data.Cart.cart(), nil
}

func (c *Client) CreateCart(ctx context.Context) (*models.Cart, error) {
	var data struct {
		Payload cartPayload `json:"cartCreate"`
	}
	vars := map[string]any{"lineItems": []models.LineInput{}}
	if err := c.do(ctx, "cartCreate", createCartMutation, vars, &data); err != nil {
		return nil, err
	}
	return payloadCart(data.Payload)
}

func (c *Client) AddCartLines(ctx context.Context, cartID string, lines []models.LineInput) (*models.Cart, error) {
	var data struct {
		Payload cartPayload `json:"cartLinesAdd"`
	}
	vars := map[string]any{"cartId": cartID, "lines": lines}
	if err := c.do(ctx, "cartLinesAdd", addToCartMutation, vars, &data); err != nil {
		return nil, err
	}
	return payloadCart(data.Payload)
}

func (c *Client) UpdateCartLines(ctx context.Context, cartID string, lines []models.LineUpdate) (*models.Cart, error) {
	var data struct {
		Payload cartPayload `json:"cartLinesUpdate"`
	}
	vars := map[string]any{"cartId": cartID, "lines": lines}
	if err := c.do(ctx, "cartLinesUpdate", editCartItemsMutation, vars, &data); err != nil {
		return nil, err
	}
	return payloadCart(data.Payload)
}

func (c *Client) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*models.Cart, error) {
	var data struct {
		Payload cartPayload `json:"cartLinesRemove"`
	}
	vars := map[string]any{"cartId": cartID, "lineIds": lineIDs}
	if err := c.do(ctx, "cartLinesRemove", removeFromCartMutation, vars, &data); err != nil {
		return nil, err
	}
	return payloadCart(data.Payload)
}

func payloadCart(p cartPayload) (*models.Cart, error) {
	if len(p.UserErrors) > 0 {
		return nil, gateway.UserErrors(p.UserErrors)
	}
	if p.Cart == nil {
		return nil, gateway.ErrCartNotFound
	}
	return p.Cart.cart(), nil
}
