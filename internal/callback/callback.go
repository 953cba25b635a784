// Package callback delivers result and error frames to the endpoint a
// submitter named in its request. Delivery is best-effort one-shot: open,
// write one frame, close, never read back.
package callback

import (
	"fmt"
	"time"

	"granville/pkg/constants"
	"granville/pkg/logger"
	"granville/pkg/transport"
	"granville/pkg/wire"

	"go.uber.org/zap"
)

// writeTimeout bounds the single frame write.
const writeTimeout = 10 * time.Second

// Deliver encodes frame and writes it to endpoint.
func Deliver(endpoint string, frame interface{}) error {
	data, err := wire.Encode(frame)
	if err != nil {
		return err
	}

	conn, err := transport.Dial(endpoint)
	if err != nil {
		return fmt.Errorf("%s: connect %s: %w", constants.ErrCallbackFailed, endpoint, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("%s: write %s: %w", constants.ErrCallbackFailed, endpoint, err)
	}
	return nil
}

// SendResult delivers a completed inference. Failure is logged and dropped;
// there is nothing left to report it to.
func SendResult(endpoint string, res *wire.Result) {
	if err := Deliver(endpoint, res); err != nil {
		logger.Error("result delivery failed",
			zap.String("task_id", res.ID),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
	}
}

// SendError delivers an asynchronous error frame for token, with its
// paired numeric code.
func SendError(endpoint, taskID, token string) {
	frame := &wire.ErrorFrame{ID: taskID, Error: token, Code: constants.ErrorCode(token)}
	if err := Deliver(endpoint, frame); err != nil {
		logger.Error("error delivery failed",
			zap.String("task_id", taskID),
			zap.String("token", token),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
	}
}
