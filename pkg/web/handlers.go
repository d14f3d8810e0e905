package web

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/focuson/pkg/hub"
)

// sessionView is the running session summary
type sessionView struct {
	Start                  string  `json:"start"`
	ElapsedSeconds         float64 `json:"elapsed_seconds"`
	BlinkCount             int     `json:"blink_count"`
	ProductiveTime         int     `json:"productive_time"`
	DistractionCount       int     `json:"distraction_count"`
	DataPoints             int     `json:"data_points"`
	AvgFocusScore          float64 `json:"avg_focus_score"`
	ProductivityPercentage float64 `json:"productivity_percentage"`
}

// handleStatus returns the latest engine snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap, _, ready := s.latest()
	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no samples yet",
		})
	}
	return c.JSON(snap)
}

// handleSession returns the running session totals
func (s *Server) handleSession(c *fiber.Ctx) error {
	snap, totals, ready := s.latest()
	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no samples yet",
		})
	}
	return c.JSON(sessionView{
		Start:                  totals.Start.Format("2006-01-02T15:04:05Z07:00"),
		ElapsedSeconds:         snap.Time.Sub(totals.Start).Seconds(),
		BlinkCount:             totals.BlinkCount,
		ProductiveTime:         totals.ProductiveTime,
		DistractionCount:       totals.DistractionCount,
		DataPoints:             totals.DataPoints,
		AvgFocusScore:          totals.AvgFocusScore(),
		ProductivityPercentage: totals.ProductivityPercentage(),
	})
}

// handleMetrics renders Prometheus text exposition
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	snap, totals, _ := s.latest()

	var buf bytes.Buffer
	if err := writeMetrics(&buf, snap, totals); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	c.Set(fiber.HeaderContentType, metricsContentType)
	return c.Send(buf.Bytes())
}

// handleStatusWS streams snapshots through the status hub
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client, err := hub.NewClient(s.statusHub, c)
	if err != nil {
		c.Close()
		return
	}
	client.Run()
}
