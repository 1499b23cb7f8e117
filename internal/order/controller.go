package order

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"
	"hexapink-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderController struct {
	OrderService OrderServiceAPI
	LogService   logs.Recorder
	Logger       *zap.Logger
}

type payOrderInput struct {
	OrderID uint `json:"orderId" binding:"required"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": apperr.KindValidation})
}

func (oc *OrderController) audit(c *gin.Context, action, message string, meta interface{}) {
	entry := logs.SystemLog{Service: "order", Action: action, Message: message}
	if uid, ok := middlewares.UserID(c); ok {
		entry.UserID = &uid
	}
	logs.Record(oc.LogService, oc.Logger, entry, meta)
}

// POST /api/order/create (multipart)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}

	var in CreateOrderInput
	if err := json.Unmarshal([]byte(c.PostForm("files")), &in.Files); err != nil {
		badRequest(c, "files must be a JSON array of line items")
		return
	}
	if v := strings.TrimSpace(c.PostForm("volume")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "invalid volume")
			return
		}
		in.Volume = n
	}
	if v := strings.TrimSpace(c.PostForm("prix")); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(c, "invalid prix")
			return
		}
		in.Prix = n
	}
	in.Paid = c.PostForm("paid")
	in.PaymentMethod = c.PostForm("paymentMethod")

	var receipts []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		receipts = form.File["receipts"]
	}

	o, err := oc.OrderService.CreateOrder(c.Request.Context(), userID, in, receipts)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	oc.audit(c, "CREATE_ORDER", fmt.Sprintf("Order %d created", o.ID),
		map[string]any{"order_id": o.ID, "files": len(o.Files), "prix": o.Prix, "paid": o.Paid})
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": o})
}

// POST /api/order/pay
func (oc *OrderController) PayOrder(c *gin.Context) {
	var in payOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "orderId is required")
		return
	}

	o, err := oc.OrderService.PayOrder(in.OrderID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	oc.audit(c, "PAY_ORDER", fmt.Sprintf("Order %d paid", o.ID), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Order paid successfully", "order": o})
}

func (oc *OrderController) RecentOrders(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}
	orders, err := oc.OrderService.RecentOrders(userID, c.Query("paid"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func bindFilter(c *gin.Context) (OrderFilter, bool) {
	f := OrderFilter{
		Paid:    c.Query("paid"),
		MinDate: c.Query("minDate"),
		MaxDate: c.Query("maxDate"),
	}
	for key, dst := range map[string]**int{"minVolume": &f.MinVolume, "maxVolume": &f.MaxVolume} {
		if raw := strings.TrimSpace(c.Query(key)); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				badRequest(c, "invalid "+key)
				return f, false
			}
			*dst = &v
		}
	}
	for key, dst := range map[string]**float64{"minPrix": &f.MinPrix, "maxPrix": &f.MaxPrix} {
		if raw := strings.TrimSpace(c.Query(key)); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				badRequest(c, "invalid "+key)
				return f, false
			}
			*dst = &v
		}
	}
	f.Page, f.Limit, _ = util.Page(c.Query("page"), c.Query("limit"), defaultPageSize)
	return f, true
}

// GET /api/order/by-user
func (oc *OrderController) OrdersByUser(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user ID not found"})
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := oc.OrderService.OrdersByUser(userID, f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/order
func (oc *OrderController) ListOrders(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := oc.OrderService.ListOrders(f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
