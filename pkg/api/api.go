// Package api exposes the lanwake operations over HTTP as a JSON API:
// interface discovery, packet sending, monitor session control, recent
// monitoring events, log retrieval, and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"lanwake-go/pkg/config"
	"lanwake-go/pkg/log"
	"lanwake-go/pkg/netinfo"
	"lanwake-go/pkg/wol"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// eventHistory bounds the in-memory ring of recent monitor events.
const eventHistory = 256

// Server wires the wol core to an echo HTTP server. At most one monitor
// session is active per server; starting a second one is rejected rather
// than silently replacing the first.
type Server struct {
	Api *echo.Echo
	cfg *config.Config

	mu      sync.Mutex
	session *wol.MonitorSession
	events  []wol.Event
	drained sync.WaitGroup
}

func NewServer(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true

	s := &Server{Api: e, cfg: cfg}

	e.GET("/api/network-info", s.getNetworkInfo)
	e.GET("/api/machines", s.getMachines)
	e.POST("/api/wake", s.postWake)
	e.POST("/api/monitor/start", s.postMonitorStart)
	e.POST("/api/monitor/stop", s.postMonitorStop)
	e.GET("/api/monitor/status", s.getMonitorStatus)
	e.GET("/api/monitor/events", s.getMonitorEvents)
	e.GET("/api/logs", s.getLogs)
	e.GET("/healthz", s.getHealthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Run starts the HTTP server on the configured listen address and blocks.
func (s *Server) Run() error {
	return s.Api.Start(s.cfg.APIListenAddr)
}

// Shutdown stops the HTTP server and any active monitor session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopSession()
	return s.Api.Shutdown(ctx)
}

func (s *Server) getHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) getNetworkInfo(c echo.Context) error {
	report, err := netinfo.Collect()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if c.QueryParam("persist") == "true" {
		if _, err := netinfo.WriteSnapshot(report); err != nil {
			log.Warn().Err(err).Msg("failed to persist network-info snapshot")
		}
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) getMachines(c echo.Context) error {
	machines := s.cfg.Machines
	if machines == nil {
		machines = []config.Machine{}
	}
	return c.JSON(http.StatusOK, machines)
}

type wakeRequest struct {
	Machine   string `json:"machine"`
	MAC       string `json:"mac"`
	Broadcast string `json:"broadcast"`
	Port      int    `json:"port"`
	Probe     bool   `json:"probe"`
}

func (s *Server) postWake(c echo.Context) error {
	var req wakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Machine != "" {
		m, ok := s.cfg.FindMachine(req.Machine)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown machine: "+req.Machine)
		}
		req.MAC = m.MAC
		if req.Broadcast == "" {
			req.Broadcast = m.Broadcast
		}
		if req.Port == 0 {
			req.Port = m.Port
		}
	}
	if req.Broadcast == "" {
		req.Broadcast = s.cfg.Broadcast
	}
	if req.Port == 0 {
		req.Port = s.cfg.Port
	}

	var (
		report *wol.SendReport
		err    error
	)
	if req.Probe {
		report, err = wol.SendAndProbe(req.MAC, req.Broadcast, req.Port)
	} else {
		report, err = wol.Send(req.MAC, req.Broadcast, req.Port)
	}
	if err != nil {
		if errors.Is(err, wol.ErrInvalidMACAddress) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

type monitorStartRequest struct {
	Ports     []int  `json:"ports"`
	TargetMAC string `json:"target_mac"`
}

type monitorStatus struct {
	Running   bool   `json:"running"`
	Ports     []int  `json:"ports,omitempty"`
	TargetMAC string `json:"target_mac,omitempty"`
}

func (s *Server) postMonitorStart(c echo.Context) error {
	var req monitorStartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cfg := wol.MonitorConfig{
		Ports:       req.Ports,
		PollTimeout: s.cfg.PollTimeout,
	}
	if len(cfg.Ports) == 0 {
		cfg.Ports = s.cfg.MonitorPorts
	}
	if req.TargetMAC != "" {
		hw, err := wol.ParseMAC(req.TargetMAC)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		cfg.TargetMAC = hw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return echo.NewHTTPError(http.StatusConflict, "a monitor session is already running")
	}

	// The session must outlive the request, so it is not tied to the
	// request context.
	session, err := wol.StartMonitor(context.Background(), cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.session = session

	s.drained.Add(1)
	go s.drainEvents(session)

	return c.JSON(http.StatusOK, monitorStatus{
		Running:   true,
		Ports:     session.Ports(),
		TargetMAC: req.TargetMAC,
	})
}

// drainEvents copies session events into the bounded ring.
func (s *Server) drainEvents(session *wol.MonitorSession) {
	defer s.drained.Done()
	for ev := range session.Events() {
		s.mu.Lock()
		s.events = append(s.events, ev)
		if len(s.events) > eventHistory {
			s.events = s.events[len(s.events)-eventHistory:]
		}
		s.mu.Unlock()
	}
}

func (s *Server) stopSession() bool {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()

	if session == nil {
		return false
	}
	session.Stop()
	s.drained.Wait()
	return true
}

func (s *Server) postMonitorStop(c echo.Context) error {
	if !s.stopSession() {
		return echo.NewHTTPError(http.StatusConflict, "no monitor session is running")
	}
	return c.JSON(http.StatusOK, monitorStatus{Running: false})
}

func (s *Server) getMonitorStatus(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := monitorStatus{Running: s.session != nil}
	if s.session != nil {
		status.Ports = s.session.Ports()
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) getMonitorEvents(c echo.Context) error {
	s.mu.Lock()
	events := make([]wol.Event, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, events)
}

func (s *Server) getLogs(c echo.Context) error {
	n := 50
	if v := c.QueryParam("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "n must be a positive integer")
		}
		n = parsed
	}
	entries, err := log.GetLastNLogs(n)
	if err != nil {
		if errors.Is(err, log.ErrNotInitialized) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "log database not initialized")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}
