package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orderq/backend/events"
	"github.com/orderq/backend/models"
	"github.com/orderq/backend/utils"
)

type MenuController struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

func NewMenuController(db *gorm.DB, pub events.Publisher) *MenuController {
	return &MenuController{DB: db, Publisher: pub}
}

type menuRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock"`
	ImageURL    *string `json:"image_url"`
}

// GetAllMenus
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var menus []models.Menu
	if err := mc.DB.Order("id DESC").Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuByID
func (mc *MenuController) GetMenuByID(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	var menu models.Menu
	if err := mc.DB.First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

// CreateMenu
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	menu := models.Menu{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	if menu.Category == "" {
		menu.Category = "Uncategorized"
	}
	menu.SyncStatus()

	if err := mc.DB.Create(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	mc.Publisher.Publish(events.EventMenuUpdated, menu)

	utils.InfoLogger.Printf("Menu created: %s (stock=%d)", menu.Name, menu.Stock)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

// UpdateMenu
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	var menu models.Menu
	if err := mc.DB.First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	menu.Name = req.Name
	menu.Description = req.Description
	if req.Category != "" {
		menu.Category = req.Category
	}
	menu.Price = req.Price
	menu.Stock = req.Stock
	if req.ImageURL != nil {
		menu.ImageURL = req.ImageURL
	}
	menu.SyncStatus()

	if err := mc.DB.Save(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	mc.Publisher.Publish(events.EventMenuUpdated, menu)

	utils.RespondJSON(c, http.StatusOK, "Menu updated successfully", menu)
}

// DeleteMenu
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	res := mc.DB.Delete(&models.Menu{}, id)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	mc.Publisher.Publish(events.EventMenuUpdated, gin.H{"menu_id": id, "deleted": true})

	utils.RespondJSON(c, http.StatusOK, "Menu deleted", gin.H{"menu_id": id})
}

// GetTopSellingItems -> top 10 menus by quantity sold.
func (mc *MenuController) GetTopSellingItems(c *gin.Context) {
	var items []struct {
		MenuID   uint    `json:"menu_id"`
		MenuName string  `json:"menu_name"`
		Sold     int64   `json:"sold"`
		Revenue  float64 `json:"revenue"`
	}

	if err := mc.DB.Raw(`
		SELECT m.id AS menu_id, m.name AS menu_name,
		       COALESCE(SUM(oi.quantity), 0) AS sold,
		       COALESCE(SUM(oi.price * oi.quantity), 0) AS revenue
		FROM order_items oi
		JOIN menus m ON oi.menu_id = m.id
		GROUP BY m.id, m.name
		ORDER BY sold DESC
		LIMIT 10
	`).Scan(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Top selling items", items)
}
