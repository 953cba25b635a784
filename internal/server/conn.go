package server

import (
	"net"
	"strings"
	"time"

	"granville/internal/callback"
	"granville/internal/model"
	"granville/internal/queue"
	"granville/pkg/constants"
	"granville/pkg/logger"
	"granville/pkg/monitoring"
	"granville/pkg/wire"

	"go.uber.org/zap"
)

// recvWindow bounds one request envelope.
const recvWindow = 8 * 1024

// readTimeout bounds how long a connection may sit without sending its
// request.
const readTimeout = 10 * time.Second

// handleConn processes one submission: read, decode, validate, ack,
// enqueue, close. The ack goes out before the enqueue; an enqueue failure
// after the ack surfaces on the callback endpoint, not here.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, recvWindow)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		// Nothing sent; close silently.
		return
	}

	req, err := wire.DecodeRequest(buf[:n])
	if err != nil {
		logger.Debug("undecodable request", zap.Error(err))
		s.reject(conn, constants.UnknownID, constants.ErrInvalidRequest)
		return
	}

	if field := req.MissingField(); field != "" {
		id := constants.UnknownID
		if req.ID != nil && *req.ID != "" {
			id = *req.ID
		}
		s.reject(conn, id, constants.MissingFieldToken(field))
		return
	}

	// The task owns its strings; nothing queued may alias the read buffer
	// or the decoder's scratch space.
	task := &model.UnrankedTask{
		ID:        strings.Clone(*req.ID),
		Text:      strings.Clone(*req.Text),
		Callback:  strings.Clone(*req.Callback),
		MaxTokens: constants.DefaultMaxTokens,
	}
	if req.ModelID != nil {
		task.ModelID = *req.ModelID
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		task.MaxTokens = int(*req.MaxTokens)
	}

	s.ack(conn, task.ID)
	monitoring.TasksAccepted.Inc()

	if req.Ranked == nil || *req.Ranked {
		s.unranked.Push(task)
		return
	}

	// Ranking bypassed: the optional priority field applies, defaulting
	// to normal.
	priority := model.PriorityNormal
	if req.Priority != nil {
		priority = model.ParsePriority(*req.Priority)
	}
	if err := s.ranked.Push(task.Ranked(priority)); err != nil {
		token := constants.ErrInternal
		if err == queue.ErrFull {
			token = constants.ErrQueueFull
		}
		logger.Warn("direct enqueue failed",
			zap.String("task_id", task.ID),
			zap.String("token", token),
		)
		// The submitter's connection already carries the ack; the failure
		// is reported asynchronously.
		callback.SendError(task.Callback, task.ID, token)
	}
}

// ack writes the accepted frame on the inbound connection.
func (s *Server) ack(conn net.Conn, id string) {
	data, err := wire.Encode(&wire.Ack{ID: id, Status: constants.StatusAccepted})
	if err != nil {
		logger.Error("ack encode failed", zap.String("task_id", id), zap.Error(err))
		return
	}
	if _, err := conn.Write(data); err != nil {
		logger.Warn("ack write failed", zap.String("task_id", id), zap.Error(err))
	}
}

// reject writes a synchronous error frame; no task is created.
func (s *Server) reject(conn net.Conn, id, token string) {
	monitoring.TasksRejected.Inc()
	data, err := wire.Encode(&wire.ErrorFrame{
		ID:    id,
		Error: token,
		Code:  constants.ErrorCode(token),
	})
	if err != nil {
		logger.Error("error frame encode failed", zap.Error(err))
		return
	}
	if _, err := conn.Write(data); err != nil {
		logger.Debug("error frame write failed", zap.Error(err))
	}
}
