package controllers

import (
	"crypto/rand"
	"encoding/hex"
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

type SessionController struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Tracker   *services.TableTracker
	TTL       time.Duration
}

func NewSessionController(db *gorm.DB, pub events.Publisher, tracker *services.TableTracker, ttl time.Duration) *SessionController {
	return &SessionController{DB: db, Publisher: pub, Tracker: tracker, TTL: ttl}
}

// CreateSession membuat atau memakai kembali sesi aktif saat QR dipindai.
// The check-then-insert runs inside one transaction so concurrent scans of
// the same table cannot both create a session.
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sc.openSession(c, req.TableNumber)
}

// ScanSession is the QR-scan alias: same create-or-reuse semantics, table
// number in the path.
func (sc *SessionController) ScanSession(c *gin.Context) {
	sc.openSession(c, c.Param("table_number"))
}

func (sc *SessionController) openSession(c *gin.Context, tableNumber string) {
	var (
		session      models.Session
		table        models.Table
		reused       bool
		tableChanged bool
	)

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_number = ?", tableNumber).First(&table).Error; err != nil {
			return err
		}

		// Reuse the active session if one exists.
		err := tx.Where("table_id = ? AND is_active = ? AND expires_at > ?", table.ID, true, time.Now()).
			First(&session).Error
		if err == nil {
			reused = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		token, err := generateSessionToken()
		if err != nil {
			return err
		}

		now := time.Now()
		session = models.Session{
			TableID:   table.ID,
			Token:     token,
			IsActive:  true,
			CreatedAt: now,
			ExpiresAt: now.Add(sc.TTL),
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		tableChanged, err = sc.Tracker.Apply(tx, &table, services.EventSessionStarted)
		return err
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
			return
		}
		utils.ErrorLogger.Printf("Error creating session for table %s: %v", tableNumber, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("server error"))
		return
	}

	data := gin.H{
		"table_id":     table.ID,
		"table_number": table.TableNumber,
		"token":        session.Token,
		"expires_at":   session.ExpiresAt,
	}

	if reused {
		utils.RespondJSON(c, http.StatusOK, "Session already active", data)
		return
	}

	if tableChanged {
		sc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}
	sc.Publisher.Publish(events.EventSessionUpdate, session)

	utils.InfoLogger.Printf("New session created for table %s", table.TableNumber)
	utils.RespondJSON(c, http.StatusCreated, "New session created", data)
}

// VerifySession -> session+table if active and unexpired. Expired and unknown
// tokens both come back as not found.
func (sc *SessionController) VerifySession(c *gin.Context) {
	token := c.Param("token")

	var session models.Session
	if err := sc.DB.Preload("Table").
		Where("token = ? AND is_active = ? AND expires_at > ?", token, true, time.Now()).
		First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("invalid or expired session"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session valid", session)
}

// EndSession deactivates the session and frees the table.
func (sc *SessionController) EndSession(c *gin.Context) {
	token := c.Param("token")

	var (
		session      models.Session
		table        models.Table
		tableChanged bool
	)

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ? AND is_active = ?", token, true).First(&session).Error; err != nil {
			return err
		}

		if err := tx.Model(&session).Update("is_active", false).Error; err != nil {
			return err
		}

		if err := tx.First(&table, session.TableID).Error; err != nil {
			return err
		}

		var err error
		tableChanged, err = sc.Tracker.Apply(tx, &table, services.EventSessionEnded)
		return err
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("no active session found"))
			return
		}
		utils.ErrorLogger.Printf("Error ending session %s: %v", token, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("server error"))
		return
	}

	session.IsActive = false
	if tableChanged {
		sc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}
	sc.Publisher.Publish(events.EventSessionUpdate, session)

	utils.InfoLogger.Printf("Session ended for table %s", table.TableNumber)
	utils.RespondJSON(c, http.StatusOK, "Session ended", gin.H{
		"table_id": table.ID,
		"status":   table.Status,
	})
}

// generateSessionToken returns 24 random bytes hex encoded.
func generateSessionToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
