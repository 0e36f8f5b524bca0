// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package capture

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtpreplay/pkg/base"
)

// DumpFile lal录制的udp payload文件，每条消息16字节头部，大端：
//
// | ver(4) | typ(4) | len(4) | timestamp(4) | body(len) |
type DumpFile struct {
	file *os.File
}

type DumpFileMessage struct {
	Ver       uint32
	Typ       uint32
	Len       uint32
	Timestamp uint32
	Body      []byte
}

const (
	dumpFileHeaderLength = 16
	dumpFileVer          = 1
	dumpFileTypUdp       = 1
)

func NewDumpFile() *DumpFile {
	return &DumpFile{}
}

func (d *DumpFile) OpenToWrite(filename string) (err error) {
	dir := filepath.Dir(filename)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	d.file, err = os.Create(filename)
	return
}

func (d *DumpFile) OpenToRead(filename string) (err error) {
	d.file, err = os.Open(filename)
	return
}

func (d *DumpFile) Write(b []byte) error {
	_, err := d.file.Write(d.pack(b))
	return err
}

// ReadOneMessage 读到文件结尾时返回io.EOF，消息不完整时返回io.ErrUnexpectedEOF
func (d *DumpFile) ReadOneMessage() (m DumpFileMessage, err error) {
	header := make([]byte, dumpFileHeaderLength)
	if _, err = io.ReadFull(d.file, header); err != nil {
		return
	}
	m.Ver = bele.BeUint32(header)
	m.Typ = bele.BeUint32(header[4:])
	m.Len = bele.BeUint32(header[8:])
	m.Timestamp = bele.BeUint32(header[12:])
	if m.Ver != dumpFileVer {
		err = fmt.Errorf("%w. unknown dump file version. ver=%d", base.ErrCaptureRead, m.Ver)
		return
	}
	m.Body = make([]byte, m.Len)
	if _, err = io.ReadFull(d.file, m.Body); err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return
}

func (d *DumpFile) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

func (m *DumpFileMessage) DebugString() string {
	return fmt.Sprintf("ver: %d, typ: %d, len: %d, timestamp: %d, hex: %s",
		m.Ver, m.Typ, m.Len, m.Timestamp, hex.Dump(nazabytes.Prefix(m.Body, 16)))
}

func (d *DumpFile) pack(b []byte) []byte {
	ret := make([]byte, len(b)+dumpFileHeaderLength)
	bele.BePutUint32(ret, dumpFileVer)
	bele.BePutUint32(ret[4:], dumpFileTypUdp)
	bele.BePutUint32(ret[8:], uint32(len(b)))
	bele.BePutUint32(ret[12:], uint32(time.Now().Unix()))
	copy(ret[16:], b)
	return ret
}

// ---------------------------------------------------------------------------------------------------------------------

// DumpFileSource 将dump文件作为抓包源
type DumpFileSource struct {
	filename string
}

func NewDumpFileSource(filename string) *DumpFileSource {
	return &DumpFileSource{filename: filename}
}

func (s *DumpFileSource) Name() string {
	return s.filename
}

func (s *DumpFileSource) Visit(onPayload OnPayload) error {
	df := NewDumpFile()
	if err := df.OpenToRead(s.filename); err != nil {
		return base.NewErrCaptureRead(s.filename, err)
	}
	defer df.Close()

	for {
		m, err := df.ReadOneMessage()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return base.NewErrCaptureRead(s.filename, err)
		}
		if err = onPayload(m.Body); err != nil {
			return nazaerrors.Wrap(err)
		}
	}
}
