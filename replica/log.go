package replica

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"xdao.co/tanglemsg/msg"
)

const maxLogLine = 4 << 20

// ReadLog reads a JSON-lines feed log. Blank lines are skipped.
func ReadLog(r io.Reader) ([]*msg.Msg, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLogLine)
	var out []*msg.Msg
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		m, err := msg.DecodeBytes(b)
		if err != nil {
			return nil, errors.Wrapf(err, "log line %d", line)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read log")
	}
	return out, nil
}

// ReadLogFile is ReadLog on a file. A missing file is an empty log.
func ReadLogFile(path string) ([]*msg.Msg, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open log")
	}
	defer f.Close()
	return ReadLog(f)
}

// WriteLog writes one message per line.
func WriteLog(w io.Writer, msgs []*msg.Msg) error {
	for _, m := range msgs {
		b, err := m.Encode()
		if err != nil {
			return err
		}
		b = append(b, '\n')
		if _, err := w.Write(b); err != nil {
			return errors.Wrap(err, "write log")
		}
	}
	return nil
}

// AppendLogFile appends m to the log at path, creating it if needed.
func AppendLogFile(path string, m *msg.Msg) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log")
	}
	if err := WriteLog(f, []*msg.Msg{m}); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close log")
}
