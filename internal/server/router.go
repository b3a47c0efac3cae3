package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lanebattle/internal/auth"
	"lanebattle/internal/combat"
	"lanebattle/internal/logging"
	"lanebattle/internal/match"
)

const commandTimeout = 3 * time.Second

type tokenReq struct {
	Team string `json:"team" binding:"required"`
	Code string `json:"code"`
}

type deployReq struct {
	Lane string `json:"lane" binding:"required"`
	Slot *int   `json:"slot" binding:"required"`
	Def  string `json:"def"`
}

type readyReq struct {
	Ready *bool `json:"ready"`
}

type api struct {
	run *Runner
	hub *Hub
	iss *auth.Issuer
	log *zap.Logger
}

func NewRouter(run *Runner, hub *Hub, iss *auth.Issuer, log *zap.Logger) *gin.Engine {
	a := &api{run: run, hub: hub, iss: iss, log: logging.OrNop(log).Named("http")}
	r := gin.New()
	r.Use(gin.Recovery(), a.accessLog())

	r.GET("/api/state", a.state)
	r.POST("/api/tokens", a.token)
	team := r.Group("/api", a.requireTeam())
	team.POST("/deploy", a.deploy)
	team.DELETE("/deploy", a.remove)
	team.POST("/ready", a.ready)
	team.POST("/retreat", a.retreat)
	r.GET("/ws", hub.ServeWS)
	return r
}

func (a *api) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Debug("request",
			zap.String("method", c.Request.Method), zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()), zap.Duration("took", time.Since(start)))
	}
}

func (a *api) requireTeam() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		tok := strings.TrimPrefix(h, "Bearer ")
		if !strings.HasPrefix(h, "Bearer ") {
			tok = c.Query("token")
		}
		team, err := a.iss.Verify(tok, a.run.MatchID())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("team", team)
		c.Next()
	}
}

func teamOf(c *gin.Context) combat.Team {
	t, _ := c.Get("team")
	team, _ := t.(combat.Team)
	return team
}

func (a *api) state(c *gin.Context) {
	c.JSON(http.StatusOK, a.run.Snapshot())
}

func (a *api) token(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	team, ok := combat.ParseTeam(req.Team)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "team must be p1 or p2"})
		return
	}
	matchID := a.run.MatchID()
	tok, err := a.iss.Issue(matchID, team, req.Code)
	if errors.Is(err, auth.ErrBadJoinCode) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "team": team.String(), "match": matchID})
}

func (a *api) do(c *gin.Context, cmd match.Command) (match.Reply, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()
	cmd.Team = teamOf(c)
	rep, err := a.run.Do(ctx, cmd)
	if err == nil {
		err = rep.Err
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return rep, false
	}
	return rep, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, match.ErrInvalidPlacement), errors.Is(err, match.ErrUnknownDefinition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, match.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (a *api) slotCommand(c *gin.Context, kind match.CommandKind) (match.Command, bool) {
	var req deployReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return match.Command{}, false
	}
	lane, ok := a.run.Lane(req.Lane)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown lane " + req.Lane})
		return match.Command{}, false
	}
	return match.Command{Kind: kind, Lane: lane, Slot: *req.Slot, Def: req.Def}, true
}

func (a *api) deploy(c *gin.Context) {
	cmd, ok := a.slotCommand(c, match.CmdDeploy)
	if !ok {
		return
	}
	if rep, ok := a.do(c, cmd); ok {
		c.JSON(http.StatusCreated, gin.H{"unit": int64(rep.Unit), "def": rep.Def})
	}
}

func (a *api) remove(c *gin.Context) {
	cmd, ok := a.slotCommand(c, match.CmdRemove)
	if !ok {
		return
	}
	if rep, ok := a.do(c, cmd); ok {
		c.JSON(http.StatusOK, gin.H{"removed": rep.Removed, "def": rep.Def})
	}
}

func (a *api) ready(c *gin.Context) {
	req := readyReq{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	ready := req.Ready == nil || *req.Ready
	if _, ok := a.do(c, match.Command{Kind: match.CmdReady, Ready: ready}); ok {
		c.JSON(http.StatusOK, gin.H{"ready": ready})
	}
}

func (a *api) retreat(c *gin.Context) {
	if _, ok := a.do(c, match.Command{Kind: match.CmdRetreat}); ok {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
