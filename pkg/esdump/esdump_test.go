// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package esdump_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/esdump"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

var (
	sps = []byte{0x67, 0x42, 0xc0, 0x1e, 0xda, 0x02, 0x80, 0xf6, 0x40}
	pps = []byte{0x68, 0xce, 0x3c, 0x80}
)

func unit(timestamp uint32, payload ...byte) rtprtcp.RtpUnit {
	return rtprtcp.RtpUnit{
		Version:     rtprtcp.DefaultRtpVersion,
		PayloadType: base.RtpPacketTypeAvc,
		Timestamp:   timestamp,
		Payload:     payload,
	}
}

// 两帧：sps pps idr(FU-A分三片)，然后一个非idr的单一nalu
func feedFrames(d *esdump.Dumper) {
	d.Feed(unit(3000, sps...))
	d.Feed(unit(3000, pps...))
	d.Feed(unit(3000, 0x5c, 0x85, 0x88, 0x80))
	d.Feed(unit(3000, 0x5c, 0x05, 0x01, 0x02))
	d.Feed(unit(3000, 0x5c, 0x45, 0x03, 0x04))
	d.Feed(unit(6000, 0x41, 0x9a, 0x10, 0x20))
	// 其他payload type的包被跳过
	u := unit(6000, 0x41, 0x9a)
	u.PayloadType = 96
	d.Feed(u)
}

func TestAnnexbWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out", "dump.h264")
	w, err := esdump.NewAnnexbWriter(filename)
	assert.Equal(t, nil, err)

	d := esdump.NewDumper([]esdump.INaluSink{w})
	feedFrames(d)
	assert.Equal(t, nil, d.Close())

	stat := d.Stat()
	assert.Equal(t, 4, stat.NaluTotal)
	assert.Equal(t, 1, stat.Skipped)

	b, err := os.ReadFile(filename)
	assert.Equal(t, nil, err)
	var expected []byte
	for _, nalu := range [][]byte{sps, pps, {0x45, 0x88, 0x80, 0x01, 0x02, 0x03, 0x04}, {0x41, 0x9a, 0x10, 0x20}} {
		expected = append(expected, 0, 0, 0, 1)
		expected = append(expected, nalu...)
	}
	assert.Equal(t, expected, b)
}

func TestTsWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "dump.ts")
	w, err := esdump.NewTsWriter(filename)
	assert.Equal(t, nil, err)

	d := esdump.NewDumper([]esdump.INaluSink{w})
	feedFrames(d)
	assert.Equal(t, nil, d.Close())

	b, err := os.ReadFile(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, len(b) > 0)
	assert.Equal(t, 0, len(b)%188)
	assert.Equal(t, uint8(0x47), b[0])

	dmx := ts.NewDemuxer(context.Background(), bufio.NewReader(bytes.NewReader(b)))
	var pess []*ts.PESData
	for {
		data, err := dmx.NextData()
		if errors.Is(err, ts.ErrNoMorePackets) {
			break
		}
		assert.Equal(t, nil, err)
		if data.PES != nil {
			assert.Equal(t, uint16(esdump.TsVideoPid), data.FirstPacket.Header.PID)
			pess = append(pess, data.PES)
		}
	}
	assert.Equal(t, 2, len(pess))
	assert.Equal(t, int64(3000), pess[0].Header.OptionalHeader.PTS.Base)
	assert.Equal(t, int64(6000), pess[1].Header.OptionalHeader.PTS.Base)

	// 每个access unit前面补了aud
	assert.Equal(t, []byte{0, 0, 0, 1, 0x09, 0xf0, 0, 0, 0, 1, 0x67}, pess[0].Data[:11])
	assert.Equal(t, true, bytes.Contains(pess[0].Data, []byte{0, 0, 0, 1, 0x45, 0x88, 0x80}))
}

func TestNewWriterFailed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	assert.Equal(t, nil, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := esdump.NewAnnexbWriter(filepath.Join(blocker, "dump.h264"))
	assert.Equal(t, true, errors.Is(err, base.ErrEsDump))
	_, err = esdump.NewTsWriter(filepath.Join(blocker, "dump.ts"))
	assert.Equal(t, true, errors.Is(err, base.ErrEsDump))
}
