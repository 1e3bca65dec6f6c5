package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orderq/backend/controllers"
	"github.com/orderq/backend/events"
	"github.com/orderq/backend/models"
	"github.com/orderq/backend/services"
	"github.com/orderq/backend/utils"
)

func setupTestDBForTables() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	if err := db.AutoMigrate(&models.Table{}, &models.Session{}, &models.Menu{}, &models.Order{}, &models.OrderItem{}); err != nil {
		panic(err)
	}
	return db
}

func setupTableRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	tableCtrl := controllers.NewTableController(db, events.NopPublisher{}, services.NewTableTracker())
	router.POST("/api/tables", tableCtrl.CreateTable)
	router.GET("/api/tables", tableCtrl.GetAllTables)
	router.GET("/api/tables/:table_id/details", tableCtrl.GetTableDetails)
	router.PUT("/api/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	router.DELETE("/api/tables/:table_id", tableCtrl.DeleteTable)
	return router
}

func TestCreateTable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	payload, _ := json.Marshal(map[string]string{"table_number": "T1"})
	req, _ := http.NewRequest("POST", "/api/tables", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var table models.Table
	db.Where("table_number = ?", "T1").First(&table)
	assert.Equal(t, models.TableAvailable, table.Status)
}

func TestGetAllTablesIncludesUnpaidTotal(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	db.Create(&models.Table{TableNumber: "T1", Status: models.TableInProgress})
	db.Create(&models.Table{TableNumber: "T2", Status: models.TableAvailable})

	db.Create(&models.Order{TableID: 1, Status: models.OrderUnserved, PaymentStatus: models.PaymentUnpaid, PaymentMethod: models.PaymentMethodCash, TotalAmount: 30})
	db.Create(&models.Order{TableID: 1, Status: models.OrderServed, PaymentStatus: models.PaymentUnpaid, PaymentMethod: models.PaymentMethodCash, TotalAmount: 12})
	db.Create(&models.Order{TableID: 1, Status: models.OrderServed, PaymentStatus: models.PaymentPaid, PaymentMethod: models.PaymentMethodOnline, TotalAmount: 99})

	req, _ := http.NewRequest("GET", "/api/tables", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			TableNumber string  `json:"table_number"`
			TotalUnpaid float64 `json:"total_unpaid"`
		} `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Len(t, resp.Data, 2)

	// Paid orders are excluded from the running bill
	assert.Equal(t, "T1", resp.Data[0].TableNumber)
	assert.Equal(t, 42.0, resp.Data[0].TotalUnpaid)
	assert.Equal(t, "T2", resp.Data[1].TableNumber)
	assert.Equal(t, 0.0, resp.Data[1].TotalUnpaid)
}

func TestGetTableDetails(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	db.Create(&models.Table{TableNumber: "T1", Status: models.TableOccupied})
	db.Create(&models.Session{TableID: 1, Token: "detailtokendetailtokendetailtokendetailtokendet", IsActive: true, ExpiresAt: time.Now().Add(time.Hour)})
	db.Create(&models.Order{TableID: 1, SessionID: 1, Status: models.OrderPending, PaymentStatus: models.PaymentUnpaid, PaymentMethod: models.PaymentMethodCash, TotalAmount: 15})

	req, _ := http.NewRequest("GET", "/api/tables/1/details", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp["data"].(map[string]interface{})
	assert.NotNil(t, data["table"])
	assert.NotNil(t, data["session"])
	assert.Len(t, data["orders"], 1)

	// Unknown table -> 404
	req, _ = http.NewRequest("GET", "/api/tables/99/details", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTableStatusOverride(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	db.Create(&models.Table{TableNumber: "T1", Status: models.TableAvailable})

	payload, _ := json.Marshal(map[string]string{"status": models.TableServed})
	req, _ := http.NewRequest("PUT", "/api/tables/1/status", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var table models.Table
	db.First(&table, 1)
	assert.Equal(t, models.TableServed, table.Status)

	// Statuses outside the state machine are rejected
	payload, _ = json.Marshal(map[string]string{"status": "closed"})
	req, _ = http.NewRequest("PUT", "/api/tables/1/status", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	db.First(&table, 1)
	assert.Equal(t, models.TableServed, table.Status)
}

func TestDeleteTable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	db.Create(&models.Table{TableNumber: "T1", Status: models.TableAvailable})

	req, _ := http.NewRequest("DELETE", "/api/tables/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Table{}).Count(&count)
	assert.Equal(t, int64(0), count)

	req, _ = http.NewRequest("DELETE", "/api/tables/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
