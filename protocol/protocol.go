// Package protocol holds the wire formats of the vaporizer firmware: the line
// oriented operator channel and the Modbus ASCII frames exchanged with the
// temperature controller.
package protocol

// Version represents the firmware version
const Version = "0.3.0"

// Protocol constants
const (
	MessageMax = 512 // Output scratch buffer size, one poll cycle of replies
	LineEnd    = "\r\n"

	// ReplyWidth is the fixed receive buffer used for controller replies.
	ReplyWidth = 32
)

// Controller register map. The station is a Delta DTB style PID controller at
// slave address 1 speaking Modbus ASCII.
const (
	StationAddress = 0x01

	RegProcessValue = 0x1000 // holding register, tenths of a degree on some models
	RegSetpoint     = 0x1001 // holding register
	BitRunStatus    = 0x0814 // run/stop bit, readable as input and writable as coil
)

// Fixed request frames. Each one is a complete Modbus ASCII ADU including the
// trailing LRC and CR LF.
const (
	FrameReadProcessValue = ":010310000001EB\r\n"
	FrameReadSetpoint     = ":010310010001EA\r\n"
	FrameReadStatus       = ":010208140001E0\r\n"
	FrameWriteOn          = ":01050814FF00DF\r\n"
	FrameWriteOff         = ":010508140000DE\r\n"
)

// Field positions inside a trimmed reply.
const (
	// ValueFieldOffset is where the low three hex digits of the data word of
	// a one-register read reply start. The word itself starts at offset 7.
	ValueFieldOffset = 8
	ValueFieldLen    = 3

	// StatusFieldOffset is the low nibble of the status data byte.
	StatusFieldOffset = 8
	StatusOnChar      = '1'
)
