package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dyluth/standup/internal/report"
	"github.com/dyluth/standup/internal/storage"
	"github.com/dyluth/standup/internal/timespec"
	"github.com/dyluth/standup/internal/tracker"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/gin-gonic/gin"
)

type notesRequest struct {
	Notes string `json:"notes"`
}

type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type dateRequest struct {
	Value string `json:"value"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type fileRequest struct {
	Dir string `json:"dir"`
}

// FileResponse describes the shared file connection.
type FileResponse struct {
	Connected bool   `json:"connected"`
	Directory string `json:"directory,omitempty"`
	FileName  string `json:"fileName,omitempty"`
}

func abort(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// mutationStatus maps a board error to an HTTP status. Anything unrecognised
// is a rejected input.
func mutationStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrNoPendingChange):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) section(c *gin.Context) (standup.Section, bool) {
	section, err := standup.ParseSection(c.Param("section"))
	if err != nil {
		abort(c, http.StatusNotFound, err)
		return "", false
	}
	return section, true
}

func (s *Server) getStandup(c *gin.Context) {
	c.JSON(http.StatusOK, s.board.Snapshot())
}

func (s *Server) putNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	s.board.SetMeetingNotes(req.Notes)
	c.JSON(http.StatusOK, gin.H{"meetingNotes": req.Notes})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, report.ComputeStats(s.board.Snapshot()))
}

func (s *Server) getNotifications(c *gin.Context) {
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("after must be a sequence number"))
		return
	}
	c.JSON(http.StatusOK, s.notifications.Since(after))
}

func (s *Server) listSection(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	ongoing, err := strconv.ParseBool(c.DefaultQuery("ongoing", "false"))
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("ongoing must be a boolean"))
		return
	}

	data := s.board.Snapshot()
	if ongoing {
		data = report.Ongoing(data)
	}

	switch section.Kind() {
	case standup.KindCommon:
		tasks, _ := data.Common(section)
		c.JSON(http.StatusOK, tasks)
	case standup.KindRelease:
		c.JSON(http.StatusOK, data.Release)
	default:
		c.JSON(http.StatusOK, data.Rwt)
	}
}

func (s *Server) addTask(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	id, err := s.board.Add(section)
	if err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// writeUpdate answers 202 when a date change now awaits a reason.
func writeUpdate(c *gin.Context, res tracker.UpdateResult) {
	status := http.StatusOK
	if res.Pending != nil {
		status = http.StatusAccepted
	}
	c.JSON(status, res)
}

func (s *Server) updateTask(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var (
		res tracker.UpdateResult
		err error
	)
	switch section.Kind() {
	case standup.KindCommon:
		var p tracker.CommonPatch
		if err := c.ShouldBindJSON(&p); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		res, err = s.board.UpdateCommon(section, id, p)
	case standup.KindRelease:
		var p tracker.ReleasePatch
		if err := c.ShouldBindJSON(&p); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		res, err = s.board.UpdateRelease(id, p)
	default:
		var p tracker.RwtPatch
		if err := c.ShouldBindJSON(&p); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		err = s.board.UpdateRwt(id, p)
	}
	if err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	writeUpdate(c, res)
}

func (s *Server) deleteTask(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	if err := s.board.Delete(section, c.Param("id")); err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) reorder(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if req.From == nil || req.To == nil {
		abort(c, http.StatusBadRequest, errors.New("from and to are required"))
		return
	}

	moved, err := s.board.Reorder(section, *req.From, *req.To)
	if err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}

func (s *Server) setDate(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	field, err := standup.ParseDateField(c.Param("field"))
	if err != nil {
		abort(c, http.StatusNotFound, err)
		return
	}
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	value, err := timespec.Parse(req.Value, s.now())
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	res, err := s.board.SetDate(section, c.Param("id"), field, value)
	if err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	writeUpdate(c, res)
}

func (s *Server) getDateChange(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	change, ok := s.board.PendingDateChange(section, c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, tracker.ErrNoPendingChange)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (s *Server) confirmDateChange(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	res, err := s.board.ConfirmDateChange(section, c.Param("id"), req.Reason)
	if err != nil {
		abort(c, mutationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) cancelDateChange(c *gin.Context) {
	section, ok := s.section(c)
	if !ok {
		return
	}
	if !s.board.CancelDateChange(section, c.Param("id")) {
		abort(c, http.StatusNotFound, tracker.ErrNoPendingChange)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getFile(c *gin.Context) {
	if s.files == nil {
		c.JSON(http.StatusOK, FileResponse{})
		return
	}
	dir, ok := s.files.Connected()
	c.JSON(http.StatusOK, FileResponse{Connected: ok, Directory: dir, FileName: fileName(ok)})
}

func fileName(connected bool) string {
	if connected {
		return standup.SharedFileName
	}
	return ""
}

func (s *Server) connectFile(c *gin.Context) {
	if s.files == nil {
		abort(c, http.StatusNotImplemented, errors.New("shared file storage is not available"))
		return
	}
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	res, err := s.files.ConnectFile(c.Request.Context(), storage.StaticPicker(strings.TrimSpace(req.Dir)), s.board.Snapshot())
	if errors.Is(err, storage.ErrPickerCancelled) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	s.board.Replace(res.Data)
	s.log.WithField("directory", res.Directory).Info("Connected shared file over API")
	c.JSON(http.StatusOK, FileResponse{Connected: true, Directory: res.Directory, FileName: res.FileName})
}

func (s *Server) disconnectFile(c *gin.Context) {
	if s.files != nil {
		s.files.DisconnectFile()
	}
	c.Status(http.StatusNoContent)
}
