package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-storefront/api/middleware"
	"github.com/angelmondragon/marketplace-storefront/internal/cart"
	"github.com/angelmondragon/marketplace-storefront/internal/checkout"
	"github.com/angelmondragon/marketplace-storefront/internal/clientstate"
	"github.com/angelmondragon/marketplace-storefront/internal/navguard"
	"github.com/angelmondragon/marketplace-storefront/internal/optimistic"
	"github.com/angelmondragon/marketplace-storefront/internal/uploads"
	"github.com/angelmondragon/marketplace-storefront/internal/wishlist"
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/logger"
	"github.com/angelmondragon/marketplace-storefront/pkg/marketplace"
	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
)

func openState(t *testing.T) *clientstate.Store {
	t.Helper()
	manager, err := clientstate.NewManager(redis.NewMemory(), clientstate.Options{PersistTTL: time.Hour, EphemeralTTL: time.Minute})
	require.NoError(t, err)
	state, err := manager.Open(context.Background(), "3b8f6f0e-8a8e-4d43-9a57-0c3cf4a0d7b1")
	require.NoError(t, err)
	return state
}

func withState(req *http.Request, state *clientstate.Store) *http.Request {
	return req.WithContext(middleware.WithState(req.Context(), state))
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Message
}

func TestCartAddUpdateAndClear(t *testing.T) {
	state := openState(t)
	svc := cart.NewService()
	logg := logger.Nop()

	add := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":"p-1","title":"Lamp","price":"12.50","quantity":2}`))
	rec := httptest.NewRecorder()
	CartAddItem(svc, logg)(rec, withState(add, state))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var added cart.Cart
	decodeData(t, rec, &added)
	require.Len(t, added.Items, 1)
	itemID := added.Items[0].ID

	update := httptest.NewRequest(http.MethodPatch, "/cart/items/"+itemID, strings.NewReader(`{"quantity":5}`))
	update = withURLParams(withState(update, state), map[string]string{"itemId": itemID})
	rec = httptest.NewRecorder()
	CartUpdateItem(svc, logg)(rec, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated cart.Cart
	decodeData(t, rec, &updated)
	assert.Equal(t, 5, updated.Items[0].Quantity)

	rec = httptest.NewRecorder()
	CartClear(svc, logg)(rec, withState(httptest.NewRequest(http.MethodDelete, "/cart", nil), state))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	items, err := svc.Items(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartAddRejectsMissingProduct(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"quantity":1}`))
	CartAddItem(cart.NewService(), logger.Nop())(rec, withState(req, openState(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorMessage(t, rec), "productId")
}

func TestCartWithoutServiceIsUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(nil, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, pkgerrors.GenericMessage, decodeErrorMessage(t, rec))
}

type stubCheckout struct {
	placed checkout.PlaceOrderRequest
	err    error
}

func (s *stubCheckout) Quote(context.Context, *clientstate.Store, checkout.QuoteRequest) (*checkout.Quote, error) {
	return &checkout.Quote{}, nil
}

func (s *stubCheckout) PlaceOrder(_ context.Context, _ *clientstate.Store, req checkout.PlaceOrderRequest) (*checkout.PlaceOrderResult, error) {
	s.placed = req
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.PlaceOrderResult{State: enums.CheckoutStateSuccess, OrderIDs: []string{"o-1"}}, nil
}

func TestCheckoutPlaceOrderTrimsNotes(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"deliveryMethod":"pickup","paymentCardId":"card-1","notes":"  leave at door  "}`
	rec := httptest.NewRecorder()
	CheckoutPlaceOrder(svc, logger.Nop())(rec, withState(httptest.NewRequest(http.MethodPost, "/checkout/place-order", strings.NewReader(body)), openState(t)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "leave at door", svc.placed.Notes)
	assert.Equal(t, enums.DeliveryMethodPickup, svc.placed.DeliveryMethod)
}

func TestCheckoutPlaceOrderMirrorsUpstreamRejection(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeUpstreamRejected, "Card declined").WithStatus(http.StatusPaymentRequired)}
	body := `{"deliveryMethod":"pickup","paymentCardId":"card-1"}`
	rec := httptest.NewRecorder()
	CheckoutPlaceOrder(svc, logger.Nop())(rec, withState(httptest.NewRequest(http.MethodPost, "/checkout/place-order", strings.NewReader(body)), openState(t)))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Card declined", decodeErrorMessage(t, rec))
}

func TestCheckoutPlaceOrderRejectsZeroQuantityBuyNow(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"source":"buy_now","buyNowItem":{"productId":"p1","price":10,"quantity":0},"deliveryMethod":"pickup","paymentCardId":"card-1"}`
	rec := httptest.NewRecorder()
	CheckoutPlaceOrder(svc, logger.Nop())(rec, withState(httptest.NewRequest(http.MethodPost, "/checkout/place-order", strings.NewReader(body)), openState(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.placed.DeliveryMethod, "service must not run")
}

func TestCheckoutQuoteRejectsUnknownMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout/quote", strings.NewReader(`{"deliveryMethod":"drone"}`))
	CheckoutQuote(&stubCheckout{}, logger.Nop())(rec, withState(req, openState(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubWishlist struct {
	confirm optimistic.Result[bool]
}

func (s *stubWishlist) List(context.Context, *clientstate.Store) ([]string, error) {
	return []string{"p-1"}, nil
}

func (s *stubWishlist) Toggle(_ context.Context, _ *clientstate.Store, productID string) (*wishlist.ToggleResult, <-chan optimistic.Result[bool], error) {
	done := make(chan optimistic.Result[bool], 1)
	done <- s.confirm
	return &wishlist.ToggleResult{ProductID: productID, InWishlist: true}, done, nil
}

func TestWishlistToggleAnswersOptimistically(t *testing.T) {
	svc := &stubWishlist{confirm: optimistic.Ok(true)}
	req := withURLParams(withState(httptest.NewRequest(http.MethodPost, "/wishlist/p-1/toggle", nil), openState(t)), map[string]string{"productId": "p-1"})
	rec := httptest.NewRecorder()
	WishlistToggle(svc, logger.Nop())(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var result wishlist.ToggleResult
	decodeData(t, rec, &result)
	assert.True(t, result.InWishlist)
}

func TestWishlistToggleWaitSurfacesRollback(t *testing.T) {
	svc := &stubWishlist{confirm: optimistic.Err[bool](pkgerrors.New(pkgerrors.CodeUpstreamRejected, "Product unavailable"))}
	req := withURLParams(withState(httptest.NewRequest(http.MethodPost, "/wishlist/p-1/toggle?wait=true", nil), openState(t)), map[string]string{"productId": "p-1"})
	rec := httptest.NewRecorder()
	WishlistToggle(svc, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Product unavailable", decodeErrorMessage(t, rec))
}

type fakeRegistry struct {
	verdict navguard.Verdict
	session string
}

func (f *fakeRegistry) Dispatch(sessionID string, _ navguard.Attempt) navguard.Verdict {
	f.session = sessionID
	return f.verdict
}

func TestNavigationReturnsVerdict(t *testing.T) {
	state := openState(t)
	registry := &fakeRegistry{verdict: navguard.Verdict{Allow: false, Prompt: "Payment is processing"}}
	req := httptest.NewRequest(http.MethodPost, "/navigation", strings.NewReader(`{"kind":"back","to":"/cart"}`))
	rec := httptest.NewRecorder()
	Navigation(registry, logger.Nop())(rec, withState(req, state))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, state.SessionID(), registry.session)
	var verdict navguard.Verdict
	decodeData(t, rec, &verdict)
	assert.False(t, verdict.Allow)
	assert.Equal(t, "Payment is processing", verdict.Prompt)
}

func TestNavigationRejectsUnknownKind(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/navigation", strings.NewReader(`{"kind":"teleport"}`))
	rec := httptest.NewRecorder()
	Navigation(&fakeRegistry{}, logger.Nop())(rec, withState(req, openState(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubUploads struct {
	got uploads.File
}

func (s *stubUploads) Upload(_ context.Context, _ *clientstate.Store, file uploads.File) (*marketplace.UploadedFile, error) {
	s.got = file
	return &marketplace.UploadedFile{URL: "https://cdn.example.com/a.png", Filename: file.Filename}, nil
}

func multipartRequest(t *testing.T, purpose string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if purpose != "" {
		require.NoError(t, writer.WriteField("purpose", purpose))
	}
	part, err := writer.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadForwardsFile(t *testing.T) {
	svc := &stubUploads{}
	rec := httptest.NewRecorder()
	Upload(svc, 1<<20, logger.Nop())(rec, withState(multipartRequest(t, "avatar", []byte("\x89PNG\r\n\x1a\n")), openState(t)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "avatar.png", svc.got.Filename)
	assert.Equal(t, uploads.PurposeAvatar, svc.got.Purpose)
}

func TestUploadRejectsUnknownPurpose(t *testing.T) {
	rec := httptest.NewRecorder()
	Upload(&stubUploads{}, 1<<20, logger.Nop())(rec, withState(multipartRequest(t, "tattoo", []byte("x")), openState(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader("purpose=avatar"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	Upload(&stubUploads{}, 1<<20, logger.Nop())(rec, withState(req, openState(t)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
