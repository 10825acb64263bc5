package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/metrics"
	"sensor-etl/src/models"
	"sensor-etl/src/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/relvacode/iso8601"
)

var validate = validator.New()

// DataRequest is the body of POST /data.
type DataRequest struct {
	Timestamp          string   `json:"timestamp" validate:"required"`
	AmbientTemperature *float64 `json:"ambient_temperature" validate:"required"`
	Power              *float64 `json:"power" validate:"required"`
	WindSpeed          *float64 `json:"wind_speed" validate:"required"`
}

// -----------------------------------------------------------------------------

func (s *ReadingsServer) getData(c *gin.Context) {
	start, err := parseTimeParam(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid start: " + err.Error()})
		return
	}
	end, err := parseTimeParam(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid end: " + err.Error()})
		return
	}

	fields, err := models.ValidateFields(c.QueryArray("fields"))
	if err != nil {
		var fe *helpers.InvalidFieldError
		if errors.As(err, &fe) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error(), "invalid_fields": fe.Fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	rows, err := s.Store.QueryRange(c.Request.Context(), start, end)
	if err != nil {
		s.Logger.Error("Query readings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to query readings"})
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Select(fields))
	}
	c.JSON(http.StatusOK, out)
}

// -----------------------------------------------------------------------------

func (s *ReadingsServer) getDataByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	row, err := s.Store.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "data not found"})
		return
	}
	if err != nil {
		s.Logger.Error("Get reading %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to get reading"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// -----------------------------------------------------------------------------

func (s *ReadingsServer) postData(c *gin.Context) {
	var req DataRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid JSON body: " + err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	ts, err := iso8601.ParseString(req.Timestamp)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid timestamp: " + err.Error()})
		return
	}

	row, err := s.Store.Insert(c.Request.Context(), models.MDataRow{
		Timestamp:          ts.UTC(),
		AmbientTemperature: *req.AmbientTemperature,
		Power:              *req.Power,
		WindSpeed:          *req.WindSpeed,
	})
	if err != nil {
		s.Logger.Error("Insert reading failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store reading"})
		return
	}

	s.Broadcast(row)
	c.JSON(http.StatusCreated, row)
}

// -----------------------------------------------------------------------------

func (s *ReadingsServer) deleteData(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := s.Store.Delete(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "data not found"})
		return
	}
	if err != nil {
		s.Logger.Error("Delete reading %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete reading"})
		return
	}

	s.publish(&feedEvent{kind: models.FeedDelete, id: id, at: time.Now().UTC().Unix()})
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// parseTimeParam accepts ISO-8601 with or without offset; naive means UTC.
// An empty value is an open bound.
func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := iso8601.ParseString(v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
