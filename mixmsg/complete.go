// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import "io"

// Complete is the "dsc" message: the mixer node reporting that a session
// has finished, successfully or not.
type Complete struct {
	SessionID uint64
	Success   bool
	MessageID uint32
}

var _ Message = (*Complete)(nil)

// Command implements Message.
func (c *Complete) Command() string { return CmdComplete }

// Encode implements Message.
func (c *Complete) Encode(w io.Writer) error {
	if err := writeUint64(w, c.SessionID); err != nil {
		return err
	}
	if err := writeBool(w, c.Success); err != nil {
		return err
	}
	return writeUint32(w, c.MessageID)
}

// Decode implements Message.
func (c *Complete) Decode(r io.Reader) error {
	sid, err := readUint64(r)
	if err != nil {
		return err
	}
	success, err := readBool(r)
	if err != nil {
		return err
	}
	msgID, err := readUint32(r)
	if err != nil {
		return err
	}
	c.SessionID = sid
	c.Success = success
	c.MessageID = msgID
	return nil
}
