package core

import (
	"errors"

	"vaporizer/protocol"
)

// ErrConnectionTimeout reports that the controller sent nothing within the
// settle window.
var ErrConnectionTimeout = errors.New("connection timeout")

// ErrBadReply is returned for replies too short or malformed to decode.
var ErrBadReply = protocol.ErrBadReply

// BridgeQuery is one of the fixed exchanges with the temperature controller.
type BridgeQuery uint8

const (
	QueryProcessValue BridgeQuery = iota
	QuerySetpoint
	QueryStatus
	QueryOn
	QueryOff
)

func (q BridgeQuery) String() string {
	switch q {
	case QueryProcessValue:
		return "PV"
	case QuerySetpoint:
		return "SV"
	case QueryStatus:
		return "Status"
	case QueryOn:
		return "On"
	case QueryOff:
		return "Off"
	default:
		return "Unknown"
	}
}

// Frame returns the request sent for q.
func (q BridgeQuery) Frame() string {
	switch q {
	case QueryProcessValue:
		return protocol.FrameReadProcessValue
	case QuerySetpoint:
		return protocol.FrameReadSetpoint
	case QueryStatus:
		return protocol.FrameReadStatus
	case QueryOn:
		return protocol.FrameWriteOn
	case QueryOff:
		return protocol.FrameWriteOff
	default:
		return ""
	}
}

// IsWrite reports whether q changes controller state. Writes are sent
// without waiting for the echo.
func (q BridgeQuery) IsWrite() bool {
	return q == QueryOn || q == QueryOff
}

// BridgeResult is the decoded outcome of a read query.
type BridgeResult struct {
	Query   BridgeQuery
	Value   int
	Running bool
	Raw     []byte
}

// Bridge exchanges fixed frames with the temperature controller over a
// dedicated serial port.
type Bridge struct {
	port     SerialPort
	clock    Clock
	settleMS uint32
	reply    []byte
}

// NewBridge creates a bridge that waits settleMS for each reply and keeps at
// most replyLen reply bytes.
func NewBridge(port SerialPort, clock Clock, settleMS uint32, replyLen int) *Bridge {
	return &Bridge{
		port:     port,
		clock:    clock,
		settleMS: settleMS,
		reply:    make([]byte, 0, replyLen),
	}
}

// Exchange sends the frame for q and, for reads, decodes the reply.
// Stale bytes from an earlier exchange are discarded first.
func (b *Bridge) Exchange(q BridgeQuery) (BridgeResult, error) {
	res := BridgeResult{Query: q}
	frame := q.Frame()
	if frame == "" {
		return res, errors.New("unknown bridge query")
	}

	b.drain()
	if _, err := b.port.Write([]byte(frame)); err != nil {
		return res, err
	}
	if q.IsWrite() {
		return res, nil
	}

	b.clock.Sleep(b.settleMS)
	raw := b.collect()
	if len(raw) == 0 {
		return res, ErrConnectionTimeout
	}
	res.Raw = raw

	var err error
	if q == QueryStatus {
		res.Running, err = protocol.DecodeStatus(raw)
	} else {
		res.Value, err = protocol.DecodeValue(raw)
	}
	return res, err
}

// drain discards unread bytes, such as the echo of a previous write.
func (b *Bridge) drain() {
	for b.port.Available() > 0 {
		if _, err := b.port.ReadByte(); err != nil {
			return
		}
	}
}

// collect reads whatever arrived during the settle window into the reply
// buffer and returns it trimmed. Bytes beyond the buffer are dropped.
func (b *Bridge) collect() []byte {
	b.reply = b.reply[:0]
	for b.port.Available() > 0 {
		c, err := b.port.ReadByte()
		if err != nil {
			break
		}
		if len(b.reply) < cap(b.reply) {
			b.reply = append(b.reply, c)
		}
	}
	return protocol.TrimReply(b.reply)
}
