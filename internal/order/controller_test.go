package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

type fakeOrderService struct {
	createIn       CreateOrderInput
	createReceipts int
	createErr      error
	payID          uint
	filter         OrderFilter
	byUser         uint
}

func (f *fakeOrderService) CreateOrder(_ context.Context, _ uint, in CreateOrderInput, receipts []*multipart.FileHeader) (*Order, error) {
	f.createIn, f.createReceipts = in, len(receipts)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &Order{ID: 11, Paid: in.Paid, Prix: in.Prix}, nil
}

func (f *fakeOrderService) PayOrder(orderID uint) (*Order, error) {
	f.payID = orderID
	if orderID == 404 {
		return nil, apperr.NotFound("order")
	}
	return &Order{ID: orderID, Paid: StatusPaid}, nil
}

func (f *fakeOrderService) RecentOrders(uint, string) ([]Order, error) {
	return []Order{{ID: 1}}, nil
}

func (f *fakeOrderService) OrdersByUser(userID uint, filter OrderFilter) (*OrderPage, error) {
	f.byUser, f.filter = userID, filter
	return &OrderPage{Orders: []Order{}, TotalPages: 1}, nil
}

func (f *fakeOrderService) ListOrders(filter OrderFilter) (*OrderPage, error) {
	f.filter = filter
	return &OrderPage{Orders: []Order{}, TotalPages: 1, TotalOrders: 0}, nil
}

type fakeLogService struct {
	Calls []logs.SystemLog
}

func (f *fakeLogService) Log(l logs.SystemLog, _ interface{}) error {
	f.Calls = append(f.Calls, l)
	return nil
}

func setupRouter(svc OrderServiceAPI, rec *fakeLogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, uint(5))
		c.Next()
	})
	oc := &OrderController{OrderService: svc, LogService: rec}
	r.POST("/api/order/create", oc.CreateOrder)
	r.POST("/api/order/pay", oc.PayOrder)
	r.GET("/api/order/recent", oc.RecentOrders)
	r.GET("/api/order/by-user", oc.OrdersByUser)
	r.GET("/api/order", oc.ListOrders)
	return r
}

func orderForm(fields map[string]string, receipts ...string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, name := range receipts {
		fw, _ := w.CreateFormFile("receipts", name)
		_, _ = fw.Write([]byte("receipt"))
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/order/create", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d got %d body=%s", want, w.Code, w.Body.String())
	}
}

func TestCreateOrderHandler(t *testing.T) {
	svc := &fakeOrderService{}
	rec := &fakeLogService{}
	r := setupRouter(svc, rec)

	w := serve(r, orderForm(map[string]string{
		"files":         `[{"title":"leads-A","data":[{"x":1}]}]`,
		"volume":        "120",
		"prix":          "19.5",
		"paid":          "Paid",
		"paymentMethod": "Balance",
	}, "a.pdf", "b.png"))
	assertStatus(t, w, http.StatusCreated)

	if len(svc.createIn.Files) != 1 || svc.createIn.Files[0].Title != "leads-A" || len(svc.createIn.Files[0].Data) != 1 {
		t.Fatalf("files=%+v", svc.createIn.Files)
	}
	if svc.createIn.Volume != 120 || svc.createIn.Prix != 19.5 || svc.createIn.PaymentMethod != "Balance" || svc.createReceipts != 2 {
		t.Fatalf("input=%+v receipts=%d", svc.createIn, svc.createReceipts)
	}
	if len(rec.Calls) != 1 || rec.Calls[0].Action != "CREATE_ORDER" || *rec.Calls[0].UserID != 5 {
		t.Fatalf("audit=%+v", rec.Calls)
	}
}

func TestCreateOrderHandler_BadInput(t *testing.T) {
	r := setupRouter(&fakeOrderService{}, &fakeLogService{})

	assertStatus(t, serve(r, orderForm(map[string]string{"paymentMethod": "Card"})), http.StatusBadRequest)
	assertStatus(t, serve(r, orderForm(map[string]string{"files": "[]", "prix": "abc"})), http.StatusBadRequest)
	assertStatus(t, serve(r, orderForm(map[string]string{"files": "[]", "volume": "1.5"})), http.StatusBadRequest)

	svc := &fakeOrderService{createErr: apperr.Validation("insufficient balance")}
	w := serve(setupRouter(svc, &fakeLogService{}), orderForm(map[string]string{"files": "[]"}))
	assertStatus(t, w, http.StatusBadRequest)

	svc = &fakeOrderService{createErr: errors.New("db down")}
	w = serve(setupRouter(svc, &fakeLogService{}), orderForm(map[string]string{"files": "[]"}))
	assertStatus(t, w, http.StatusInternalServerError)
	if strings.Contains(w.Body.String(), "db down") {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
}

func TestPayOrderHandler(t *testing.T) {
	svc := &fakeOrderService{}
	rec := &fakeLogService{}
	r := setupRouter(svc, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/order/pay", strings.NewReader(`{"orderId":3}`))
	req.Header.Set("Content-Type", "application/json")
	assertStatus(t, serve(r, req), http.StatusOK)
	if svc.payID != 3 || len(rec.Calls) != 1 {
		t.Fatalf("payID=%d audit=%d", svc.payID, len(rec.Calls))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/order/pay", strings.NewReader(`{"orderId":404}`))
	req.Header.Set("Content-Type", "application/json")
	assertStatus(t, serve(r, req), http.StatusNotFound)

	req = httptest.NewRequest(http.MethodPost, "/api/order/pay", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assertStatus(t, serve(r, req), http.StatusBadRequest)
}

func TestOrdersByUserHandler(t *testing.T) {
	svc := &fakeOrderService{}
	r := setupRouter(svc, &fakeLogService{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/order/by-user?paid=Paid&minVolume=10&maxPrix=99.5&minDate=2025-01-01&page=2", nil))
	assertStatus(t, w, http.StatusOK)
	f := svc.filter
	if svc.byUser != 5 || f.Paid != "Paid" || *f.MinVolume != 10 || f.MaxVolume != nil || *f.MaxPrix != 99.5 || f.MinDate != "2025-01-01" || f.Page != 2 || f.Limit != defaultPageSize {
		t.Fatalf("filter=%+v", f)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := body["totalOrders"]; !ok {
		t.Fatalf("body=%v", body)
	}

	assertStatus(t, serve(r, httptest.NewRequest(http.MethodGet, "/api/order/by-user?minPrix=x", nil)), http.StatusBadRequest)
}

func TestListAndRecentHandlers(t *testing.T) {
	r := setupRouter(&fakeOrderService{}, &fakeLogService{})
	assertStatus(t, serve(r, httptest.NewRequest(http.MethodGet, "/api/order?limit=3", nil)), http.StatusOK)
	assertStatus(t, serve(r, httptest.NewRequest(http.MethodGet, "/api/order/recent?paid=All", nil)), http.StatusOK)
}
