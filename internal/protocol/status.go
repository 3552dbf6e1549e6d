package protocol

import "strconv"

// Status is the numeric outcome carried by every response.
type Status int

const (
	StatusOK         Status = 200
	StatusTimeout    Status = 204
	StatusBadRequest Status = 400
	StatusNoQueue    Status = 404
	StatusNoOp       Status = 405
	StatusServerErr  Status = 500
	StatusNoService  Status = 503
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusBadRequest:
		return "BAD_REQUEST"
	case StatusNoQueue:
		return "NO_QUEUE"
	case StatusNoOp:
		return "NO_OP"
	case StatusServerErr:
		return "SERVER_ERR"
	case StatusNoService:
		return "NO_SERVICE"
	default:
		return "STATUS_" + strconv.Itoa(int(s))
	}
}
