// Package server implements the transport adapter: the gin-backed HTTP
// listener that turns inbound requests into calls into the dispatch core,
// streams the upstream response back, and serves the manual
// change_algorithm control-plane endpoint.
package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pmacedo/dispatchproxy/internal/dispatch"
)

// controlSuffix is the literal path suffix that diverts a request to the
// manual policy-switch handler instead of forwarding it upstream.
const controlSuffix = "change_algorithm"

// Server wraps a gin.Engine wired to a dispatch.Controller.
type Server struct {
	engine *gin.Engine
	ctrl   *dispatch.Controller
	client *http.Client
}

// New builds the transport adapter's gin engine. ctrl must be non-nil.
func New(ctrl *dispatch.Controller) *Server {
	s := &Server{
		ctrl: ctrl,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Any("/*path", s.handle)

	s.engine = engine
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for http.Server.Handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// handle is the single entry point for every inbound request.
func (s *Server) handle(c *gin.Context) {
	if strings.HasSuffix(c.Request.URL.Path, controlSuffix) {
		s.handleControl(c)
		return
	}
	s.forward(c)
}

// forward selects a worker, builds the upstream URI, streams the request
// through, and records the outcome on success or failure.
func (s *Server) forward(c *gin.Context) {
	ticket := s.ctrl.Select()

	start := time.Now()
	defer func() {
		ticket.Release(time.Since(start))
	}()

	target, err := url.Parse(ticket.Worker.Host)
	if err != nil {
		log.Error().Err(err).Str("host", ticket.Worker.Host).Msg("dispatch: malformed upstream host")
		c.Status(http.StatusBadGateway)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = s.client.Transport

	log.Info().
		Str("worker", ticket.Worker.Host).
		Str("path", c.Request.URL.Path).
		Msg("dispatch: forwarding request")

	proxy.ServeHTTP(c.Writer, c.Request)
}

// handleControl implements the manual control-plane endpoint.
func (s *Server) handleControl(c *gin.Context) {
	rawQuery := c.Request.URL.RawQuery
	if rawQuery == "" {
		c.String(http.StatusOK, "No Query Attached")
		return
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		c.String(http.StatusOK, "Invalid Algorithm Type")
		return
	}

	kind, err := dispatch.ParseAlgoType(values.Get("algo_type"))
	if err != nil {
		c.String(http.StatusOK, "Invalid Algorithm Type")
		return
	}

	s.ctrl.ManualSwitch(kind)
	c.String(http.StatusOK, "Algorithm Changed!")
}
