package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/lockapp"
)

type LockHandler struct {
	Commands commands.Bus
}

type acquireLockRequest struct {
	VehicleID string    `json:"vehicle_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

func (h LockHandler) Acquire(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req acquireLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := lockapp.AcquireLockCommand{
		VehicleID:  req.VehicleID,
		CustomerID: user.ID,
		Pickup:     req.StartTime,
		Return:     req.EndTime,
	}
	result, err := commands.Dispatch[lockapp.AcquireLockCommand, *lockapp.LockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type extendLockRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
}

func (h LockHandler) Extend(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req extendLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := lockapp.ExtendLockCommand{VehicleID: req.VehicleID, CustomerID: user.ID}
	result, err := commands.Dispatch[lockapp.ExtendLockCommand, *lockapp.LockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h LockHandler) Release(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
		return
	}
	cmd := lockapp.ReleaseLockCommand{VehicleID: vehicleID, CustomerID: user.ID}
	result, err := commands.Dispatch[lockapp.ReleaseLockCommand, *lockapp.ReleaseLockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ LockHTTP = LockHandler{}
