package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orderq/backend/events"
	"github.com/orderq/backend/models"
	"github.com/orderq/backend/services"
	"github.com/orderq/backend/utils"
)

type TableController struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Tracker   *services.TableTracker
}

func NewTableController(db *gorm.DB, pub events.Publisher, tracker *services.TableTracker) *TableController {
	return &TableController{DB: db, Publisher: pub, Tracker: tracker}
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Status:      models.TableAvailable,
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tc.Publisher.Publish(events.EventTableStatusUpdate, table)

	utils.InfoLogger.Printf("New table created: %s", table.TableNumber)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables lists every table with the total unpaid amount of its orders.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []struct {
		ID          uint    `json:"id"`
		TableNumber string  `json:"table_number"`
		Status      string  `json:"status"`
		TotalUnpaid float64 `json:"total_unpaid"`
	}

	if err := tc.DB.Raw(`
		SELECT t.id,
		       t.table_number,
		       t.status,
		       COALESCE(SUM(CASE WHEN o.payment_status = ? THEN o.total_amount ELSE 0 END), 0) AS total_unpaid
		FROM tables t
		LEFT JOIN orders o ON t.id = o.table_id
		GROUP BY t.id, t.table_number, t.status
		ORDER BY t.table_number ASC
	`, models.PaymentUnpaid).Scan(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableDetails -> one table with its active session and orders.
func (tc *TableController) GetTableDetails(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	var session models.Session
	hasSession := tc.DB.
		Where("table_id = ? AND is_active = ? AND expires_at > ?", table.ID, true, time.Now()).
		First(&session).Error == nil

	var orders []models.Order
	if err := tc.DB.Preload("OrderItems").Preload("OrderItems.Menu").
		Where("table_id = ?", table.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	data := gin.H{
		"table":  table,
		"orders": orders,
	}
	if hasSession {
		data["session"] = session
	}

	utils.RespondJSON(c, http.StatusOK, "Table detail", data)
}

// UpdateTableStatus is the manual override for staff. The value must still be
// one of the four legal statuses.
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	tableID := c.Param("table_id")
	var body struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	if err := tc.Tracker.Override(tc.DB, &table, body.Status); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tc.Publisher.Publish(events.EventTableStatusUpdate, table)

	utils.InfoLogger.Printf("Table %d status changed to %s", table.ID, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// DeleteTable -> menghapus meja
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table

	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tc.Publisher.Publish(events.EventTableStatusUpdate, gin.H{"table_id": table.ID, "deleted": true})

	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
