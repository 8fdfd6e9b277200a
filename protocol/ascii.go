package protocol

import "errors"

// ErrBadReply reports a controller reply too short or malformed to decode.
var ErrBadReply = errors.New("bad reply")

const hexDigits = "0123456789ABCDEF"

// LRC returns the Modbus longitudinal redundancy check of data: the two's
// complement of the byte sum.
func LRC(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}

// HexNibble converts one ASCII hex digit, either case.
func HexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// AppendFrame appends the Modbus ASCII framing of payload (address, function
// code and data) to dst: a colon, uppercase hex, the LRC and CR LF.
func AppendFrame(dst []byte, payload []byte) []byte {
	dst = append(dst, ':')
	for _, b := range payload {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	lrc := LRC(payload)
	dst = append(dst, hexDigits[lrc>>4], hexDigits[lrc&0x0F])
	return append(dst, LineEnd...)
}

// TrimReply strips CR, LF, space and NUL bytes from both ends of a reply.
func TrimReply(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isPadding(b[start]) {
		start++
	}
	for end > start && isPadding(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isPadding(c byte) bool {
	return c == '\r' || c == '\n' || c == ' ' || c == 0
}

// DecodeValue reads the register value carried by a trimmed one-register
// read reply from the three hex digits at ValueFieldOffset.
func DecodeValue(reply []byte) (int, error) {
	if len(reply) < ValueFieldOffset+ValueFieldLen {
		return 0, ErrBadReply
	}
	v := 0
	for _, c := range reply[ValueFieldOffset : ValueFieldOffset+ValueFieldLen] {
		n, ok := HexNibble(c)
		if !ok {
			return 0, ErrBadReply
		}
		v = v<<4 | int(n)
	}
	return v, nil
}

// DecodeStatus reports whether a trimmed status reply says the controller is
// running.
func DecodeStatus(reply []byte) (bool, error) {
	if len(reply) <= StatusFieldOffset {
		return false, ErrBadReply
	}
	return reply[StatusFieldOffset] == StatusOnChar, nil
}

// VerifyFrame checks the leading colon and the LRC of a complete frame.
// Trailing CR LF is optional.
func VerifyFrame(frame []byte) bool {
	frame = TrimReply(frame)
	if len(frame) < 3 || frame[0] != ':' || (len(frame)-1)%2 != 0 {
		return false
	}
	body := frame[1:]
	raw := make([]byte, 0, len(body)/2)
	for i := 0; i < len(body); i += 2 {
		hi, ok1 := HexNibble(body[i])
		lo, ok2 := HexNibble(body[i+1])
		if !ok1 || !ok2 {
			return false
		}
		raw = append(raw, hi<<4|lo)
	}
	// Summing the payload together with its LRC yields zero.
	var sum byte
	for _, b := range raw {
		sum += b
	}
	return sum == 0
}
