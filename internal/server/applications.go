package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/analytics"
	"github.com/ntrioooo/job-tracker/internal/kanban"
	"github.com/ntrioooo/job-tracker/internal/listview"
	"github.com/ntrioooo/job-tracker/internal/store"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

// ListResponse is the list view: the filtered records plus the size of the
// unfiltered collection.
type ListResponse struct {
	Version      string                `json:"version"`
	Total        int                   `json:"total"`
	Applications []tracker.Application `json:"applications"`
}

// AnalyticsResponse carries the summary and the chart inputs derived from it.
type AnalyticsResponse struct {
	analytics.Summary
	StatusChart  []analytics.StatusCount  `json:"statusChart"`
	JobTypeChart []analytics.JobTypeCount `json:"jobTypeChart"`
}

// BoardResponse is the column layout of the board view.
type BoardResponse struct {
	Version string          `json:"version"`
	Columns []kanban.Column `json:"columns"`
}

func filterFrom(c *gin.Context) (listview.Filter, error) {
	return listview.ParseFilter(c.Query("q"), c.Query("status"), c.Query("jobType"))
}

func listResponse(snap store.Snapshot, f listview.Filter) ListResponse {
	return ListResponse{
		Version:      snap.Version,
		Total:        len(snap.Applications),
		Applications: listview.Apply(snap.Applications, f),
	}
}

func (s *Server) analyticsResponse(c *gin.Context, snap store.Snapshot) AnalyticsResponse {
	sum := s.analytics.Summarize(c.Request.Context(), snap)
	return AnalyticsResponse{
		Summary:      sum,
		StatusChart:  sum.StatusChart(),
		JobTypeChart: sum.JobTypeChart(),
	}
}

// ─── Collection ──────────────────────────────────────────────────────────────

func (s *Server) listApplications(c *gin.Context) {
	f, err := filterFrom(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := s.store.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(snap, f))
}

func (s *Server) createApplication(c *gin.Context) {
	var draft tracker.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "invalid application body")
		return
	}
	app, err := s.store.Create(c.Request.Context(), userID(c), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// streamApplications pushes a fresh view as a server-sent event every time
// the caller's collection changes. The first event is the current state.
func (s *Server) streamApplications(c *gin.Context) {
	view := c.DefaultQuery("view", "list")
	if view != "list" && view != "board" && view != "analytics" {
		badRequest(c, "view must be one of list, board, analytics")
		return
	}
	f, err := filterFrom(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	uid := userID(c)
	sub, err := s.store.Subscribe(c.Request.Context(), uid)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer sub.Close()

	s.logger.Info("stream opened", zap.String("userId", uid), zap.String("view", view))
	defer s.logger.Info("stream closed", zap.String("userId", uid), zap.String("view", view))

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		snap, ok := <-sub.C
		if !ok {
			return false
		}
		switch view {
		case "board":
			c.SSEvent(view, BoardResponse{Version: snap.Version, Columns: kanban.Columns(snap.Applications)})
		case "analytics":
			c.SSEvent(view, s.analyticsResponse(c, snap))
		default:
			c.SSEvent(view, listResponse(snap, f))
		}
		return true
	})
}

// ─── Single record ───────────────────────────────────────────────────────────

func (s *Server) getApplication(c *gin.Context) {
	app, err := s.store.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) updateApplication(c *gin.Context) {
	var patch tracker.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid patch body")
		return
	}
	if patch.IsEmpty() {
		badRequest(c, "patch changes nothing")
		return
	}
	s.patch(c, patch)
}

func (s *Server) deleteApplication(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) patch(c *gin.Context, patch tracker.Patch) {
	app, err := s.store.Update(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ─── Tags and interview stages ───────────────────────────────────────────────

// current loads the record the tag and stage endpoints edit.
func (s *Server) current(c *gin.Context) (tracker.Application, bool) {
	app, err := s.store.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return tracker.Application{}, false
	}
	return app, true
}

func (s *Server) addTag(c *gin.Context) {
	var in struct {
		Tag string `json:"tag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "tag is required")
		return
	}
	app, ok := s.current(c)
	if !ok {
		return
	}
	s.patch(c, tracker.Patch{Tags: tracker.AddTag(app.Tags, in.Tag)})
}

func (s *Server) removeTag(c *gin.Context) {
	app, ok := s.current(c)
	if !ok {
		return
	}
	s.patch(c, tracker.Patch{Tags: tracker.RemoveTag(app.Tags, c.Param("tag"))})
}

func (s *Server) addStage(c *gin.Context) {
	var in tracker.InterviewStage
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid interview stage body")
		return
	}
	app, ok := s.current(c)
	if !ok {
		return
	}
	stages, err := tracker.AddStage(app.InterviewStages, in)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.patch(c, tracker.Patch{InterviewStages: stages})
}

func (s *Server) removeStage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "stage index must be a number")
		return
	}
	app, ok := s.current(c)
	if !ok {
		return
	}
	stages, err := tracker.RemoveStage(app.InterviewStages, index)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s.patch(c, tracker.Patch{InterviewStages: stages})
}

// ─── Board and analytics ─────────────────────────────────────────────────────

func (s *Server) board(c *gin.Context) {
	snap, err := s.store.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, BoardResponse{Version: snap.Version, Columns: kanban.Columns(snap.Applications)})
}

func (s *Server) boardEvent(c *gin.Context) {
	var ev kanban.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, "invalid board event")
		return
	}
	fb, err := s.sessions.Dispatch(c.Request.Context(), userID(c), ev)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (s *Server) summary(c *gin.Context) {
	snap, err := s.store.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.analyticsResponse(c, snap))
}
