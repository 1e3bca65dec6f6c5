package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orderq/backend/events"
	"github.com/orderq/backend/models"
	"github.com/orderq/backend/services"
	"github.com/orderq/backend/utils"
)

type OrderController struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Tracker   *services.TableTracker
}

func NewOrderController(db *gorm.DB, pub events.Publisher, tracker *services.TableTracker) *OrderController {
	return &OrderController{DB: db, Publisher: pub, Tracker: tracker}
}

// CreateOrder places one checkout batch of menu items under an active
// session. All writes (order, items, stock, table status) happen in a single
// transaction; any failure rolls back the entire order.
//
// Line prices and the total are computed server-side from the menu table.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type ItemReq struct {
		MenuID   uint `json:"menu_id" binding:"required"`
		Quantity int  `json:"quantity" binding:"required"`
	}

	var req struct {
		TableID       uint      `json:"table_id" binding:"required"`
		SessionToken  string    `json:"session_token" binding:"required"`
		PaymentMethod string    `json:"payment_method" binding:"required"`
		Items         []ItemReq `json:"items" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if len(req.Items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing order details"))
		return
	}

	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodOnline {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid payment_method"))
		return
	}

	tx := oc.DB.Begin()

	// Re-validate the session inside the transaction.
	var session models.Session
	if err := tx.Where("token = ? AND is_active = ? AND expires_at > ?",
		req.SessionToken, true, time.Now()).First(&session).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid or expired session"))
		return
	}

	if session.TableID != req.TableID {
		tx.Rollback()
		utils.RespondError(c, http.StatusBadRequest, errors.New("session does not belong to this table"))
		return
	}

	var table models.Table
	if err := tx.First(&table, req.TableID).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	paymentStatus := models.PaymentUnpaid
	if req.PaymentMethod == models.PaymentMethodOnline {
		paymentStatus = models.PaymentPaid
	}

	order := models.Order{
		TableID:       table.ID,
		SessionID:     session.ID,
		Status:        models.OrderPending,
		PaymentStatus: paymentStatus,
		PaymentMethod: req.PaymentMethod,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var total float64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			tx.Rollback()
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid quantity for menu %d", item.MenuID))
			return
		}

		var menu models.Menu
		if err := tx.First(&menu, item.MenuID).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("menu item %d not found", item.MenuID))
			return
		}

		// Snapshot the menu price at order time.
		orderItem := models.OrderItem{
			OrderID:  order.ID,
			MenuID:   menu.ID,
			Quantity: item.Quantity,
			Price:    menu.Price,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		total += menu.Price * float64(item.Quantity)

		// Deduct stock with a floor at zero.
		menu.Stock -= item.Quantity
		menu.SyncStatus()
		if err := tx.Save(&menu).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	order.TotalAmount = total
	if err := tx.Model(&order).Update("total_amount", total).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tableChanged, err := oc.Tracker.Apply(tx, &table, services.EventOrderPlaced)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.DB.Preload("OrderItems").Preload("OrderItems.Menu").First(&order, order.ID)

	oc.Publisher.Publish(events.EventNewOrder, order)
	if tableChanged {
		oc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}

	utils.InfoLogger.Printf("Order %d created for table %s (total=%.2f)", order.ID, table.TableNumber, total)
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// ConfirmOrder transitions an order pending -> unserved. The guard on the
// current status makes a second confirmation a no-op.
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	var (
		table        models.Table
		tableChanged bool
		confirmed    bool
	)

	err := oc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderPending).
			Update("status", models.OrderUnserved)
		if res.Error != nil {
			return res.Error
		}
		confirmed = res.RowsAffected > 0
		if !confirmed {
			return nil
		}

		if err := tx.First(&table, order.TableID).Error; err != nil {
			return err
		}

		var err error
		tableChanged, err = oc.Tracker.Apply(tx, &table, services.EventOrderConfirmed)
		return err
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.DB.First(&order, order.ID)

	if !confirmed {
		utils.RespondJSON(c, http.StatusOK, "Order already confirmed", order)
		return
	}

	// newOrder already went out at creation; only the table moved here.
	if tableChanged {
		oc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}

	utils.InfoLogger.Printf("Order %d confirmed", order.ID)
	utils.RespondJSON(c, http.StatusOK, "Order confirmed", order)
}

// ServeOrder marks the order as served. When no unserved orders remain for
// its table, the table itself moves to served.
func (oc *OrderController) ServeOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	if order.Status == models.OrderPending {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order not confirmed yet"))
		return
	}

	var (
		table        models.Table
		tableChanged bool
	)

	err := oc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderUnserved).
			Update("status", models.OrderServed).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status = ?", order.TableID, models.OrderUnserved).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := tx.First(&table, order.TableID).Error; err != nil {
			return err
		}

		var err error
		tableChanged, err = oc.Tracker.Apply(tx, &table, services.EventAllServed)
		return err
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.DB.First(&order, order.ID)

	if tableChanged {
		oc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}

	utils.InfoLogger.Printf("Order %d served", order.ID)
	utils.RespondJSON(c, http.StatusOK, "Order served", order)
}

// PayOrder sets payment_status to paid. Idempotent.
func (oc *OrderController) PayOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	if err := oc.DB.Model(&order).Update("payment_status", models.PaymentPaid).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d marked as paid", order.ID)
	utils.RespondJSON(c, http.StatusOK, "Order marked as paid", order)
}

// GetAllOrders -> list orders with items, newest first.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.Menu").Preload("Table").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> one order with its items and menu details.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	idStr := c.Param("order_id")
	id, _ := strconv.Atoi(idStr)

	var order models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.Menu").Preload("Table").
		First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetOrdersBySession -> all orders placed under one session token.
func (oc *OrderController) GetOrdersBySession(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("query parameter 'token' is required"))
		return
	}

	var session models.Session
	if err := oc.DB.Where("token = ?", token).First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("session not found"))
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.Menu").
		Where("session_id = ?", session.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Orders for session", orders)
}

// GetActiveOrdersCount -> how many orders are still pending or unserved.
func (oc *OrderController) GetActiveOrdersCount(c *gin.Context) {
	var count int64
	if err := oc.DB.Model(&models.Order{}).
		Where("status IN ?", []string{models.OrderPending, models.OrderUnserved}).
		Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Active orders count", gin.H{"count": count})
}

// GetSalesGraph groups orders per day: order count plus paid revenue.
func (oc *OrderController) GetSalesGraph(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid days parameter"))
		return
	}

	since := time.Now().AddDate(0, 0, -days)

	var buckets []struct {
		Day     string  `json:"day"`
		Orders  int64   `json:"orders"`
		Revenue float64 `json:"revenue"`
	}

	if err := oc.DB.Raw(`
		SELECT DATE(created_at) AS day,
		       COUNT(*) AS orders,
		       COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END), 0) AS revenue
		FROM orders
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day ASC
	`, models.PaymentPaid, since).Scan(&buckets).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Sales graph", buckets)
}

// GetRevenueByRange -> paid revenue between ?start= and ?end= (YYYY-MM-DD).
func (oc *OrderController) GetRevenueByRange(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid start date"))
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid end date"))
		return
	}
	// Include the whole end day.
	end = end.AddDate(0, 0, 1)

	var result struct {
		Revenue float64 `json:"revenue"`
		Orders  int64   `json:"orders"`
	}

	if err := oc.DB.Raw(`
		SELECT COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders
		FROM orders
		WHERE payment_status = ? AND created_at >= ? AND created_at < ?
	`, models.PaymentPaid, start, end).Scan(&result).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Revenue by range", result)
}
