package console

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFirmware answers commands from a table.
type fakeFirmware struct {
	rx      []byte
	sent    []string
	replies map[string]string
}

func (f *fakeFirmware) Available() int { return len(f.rx) }

func (f *fakeFirmware) ReadByte() (byte, error) {
	if len(f.rx) == 0 {
		return 0, errors.New("empty")
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func (f *fakeFirmware) Write(p []byte) (int, error) {
	cmd := strings.TrimRight(string(p), "\r")
	f.sent = append(f.sent, cmd)
	if reply, ok := f.replies[cmd]; ok {
		f.rx = append(f.rx, reply...)
	}
	return len(p), nil
}

func (f *fakeFirmware) Discard() { f.rx = nil }

func newFake(replies map[string]string) (*Client, *fakeFirmware) {
	f := &fakeFirmware{replies: replies}
	c := NewClient(f, 20*time.Millisecond, 50*time.Millisecond)
	c.PollInterval = time.Millisecond
	return c, f
}

func TestQuery(t *testing.T) {
	c, f := newFake(map[string]string{"A": "ADC Value: 512\r\n"})

	line, err := c.Query("A")
	require.NoError(t, err)
	assert.Equal(t, "ADC Value: 512", line)
	assert.Equal(t, []string{"A"}, f.sent)
}

func TestQueryTimeout(t *testing.T) {
	c, _ := newFake(nil)
	_, err := c.Query("P")
	assert.Equal(t, ErrTimeout, err)
}

func TestValue(t *testing.T) {
	c, _ := newFake(map[string]string{
		"P": "PV: 250\r\n",
		"V": "Connection timeout\r\n",
	})

	v, err := c.Value("P", "PV: ")
	require.NoError(t, err)
	assert.Equal(t, 250, v)

	_, err = c.Value("V", "SV: ")
	var re *ReplyError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Connection timeout", re.Reply)
}

func TestCollect(t *testing.T) {
	c, _ := newFake(map[string]string{
		"D": "State: Idle SV=0 CV=0 steps=0\r\nSETPOINT t=1 v1=2 v2=3\r\n*\r\n",
	})
	lines, err := c.Collect("D", "*", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "State: Idle"))
}

func TestMoveValve(t *testing.T) {
	c, _ := newFake(map[string]string{
		"M300":  "*\r\n",
		"M2000": "Motor SV out of range\r\n",
	})
	require.NoError(t, c.MoveValve(300))

	err := c.MoveValve(2000)
	var re *ReplyError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Motor SV out of range", re.Reply)
}

func TestSendDiscardsStale(t *testing.T) {
	c, f := newFake(map[string]string{"?": "*\r\n"})
	f.rx = []byte("stale\r\n")

	line, err := c.Query("?")
	require.NoError(t, err)
	assert.Equal(t, "*", line)
}
