// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

type naluCollector struct {
	nalus      [][]byte
	timestamps []uint32
}

func (c *naluCollector) onNalu(nalu []byte, timestamp uint32) {
	c.nalus = append(c.nalus, nalu)
	c.timestamps = append(c.timestamps, timestamp)
}

func makeAvcUnit(seq uint16, ts uint32, payload ...byte) rtprtcp.RtpUnit {
	return rtprtcp.RtpUnit{
		Version:     rtprtcp.DefaultRtpVersion,
		PayloadType: 97,
		Seq:         seq,
		Timestamp:   ts,
		Payload:     payload,
	}
}

func TestAvcUnpackerFua(t *testing.T) {
	var c naluCollector
	u := rtprtcp.NewAvcUnpacker(c.onNalu)

	// FU indicator 0x5C: NRI=2, type=28
	u.Feed(makeAvcUnit(1, 3000, 0x5C, 0x85, 0x01, 0x02))
	u.Feed(makeAvcUnit(2, 3000, 0x5C, 0x05, 0x03))
	assert.Equal(t, 0, len(c.nalus))
	u.Feed(makeAvcUnit(3, 3000, 0x5C, 0x45, 0x04, 0x05))

	assert.Equal(t, 1, len(c.nalus))
	assert.Equal(t, []byte{0, 0, 0, 1, 0x45, 0x01, 0x02, 0x03, 0x04, 0x05}, c.nalus[0])
	assert.Equal(t, uint32(3000), c.timestamps[0])

	// 非IDR
	u.Feed(makeAvcUnit(4, 6000, 0x5C, 0x81, 0xAA))
	u.Feed(makeAvcUnit(5, 6000, 0x5C, 0x01, 0xBB))
	u.Feed(makeAvcUnit(6, 6000, 0x5C, 0x41, 0xCC))
	assert.Equal(t, 2, len(c.nalus))
	assert.Equal(t, []byte{0, 0, 0, 1, 0x41, 0xAA, 0xBB, 0xCC}, c.nalus[1])

	s := u.Stat()
	assert.Equal(t, 6, s.Fed)
	assert.Equal(t, 2, s.NaluTotal)
	assert.Equal(t, 1, s.NaluCount["IDR"])
	assert.Equal(t, 1, s.NaluCount["SLICE"])
}

func TestAvcUnpackerSingle(t *testing.T) {
	var c naluCollector
	u := rtprtcp.NewAvcUnpacker(c.onNalu, func(option *rtprtcp.AvcUnpackerOption) {
		option.MaxSingleNaluSize = 8
	})

	u.Feed(makeAvcUnit(1, 0, 0x09, 0xF0))                                           // AUD
	u.Feed(makeAvcUnit(2, 0, 0x67, 0x42, 0xc0, 0x1e, 0xda, 0x02, 0x80, 0xf6))       // SPS, 8字节
	u.Feed(makeAvcUnit(3, 0, 0x68, 0xce, 0x3c, 0x80))                               // PPS
	u.Feed(makeAvcUnit(4, 0, 0x65, 0x88, 0x84, 0x00, 0x33, 0xFF, 0xFE, 0xF6, 0x01)) // 9字节，超过限制
	assert.Equal(t, 3, len(c.nalus))
	assert.Equal(t, []byte{0, 0, 0, 1, 0x09, 0xF0}, c.nalus[0])
	assert.Equal(t, []byte{0, 0, 0, 1, 0x68, 0xce, 0x3c, 0x80}, c.nalus[2])

	s := u.Stat()
	assert.Equal(t, 1, s.NaluCount["AUD"])
	assert.Equal(t, 1, s.NaluCount["SPS"])
	assert.Equal(t, 1, s.NaluCount["PPS"])
	assert.Equal(t, 1, s.Ignored)
}

func TestAvcUnpackerIgnore(t *testing.T) {
	var c naluCollector
	u := rtprtcp.NewAvcUnpacker(c.onNalu)

	// payload type不匹配
	unit := makeAvcUnit(1, 0, 0x5C, 0x85, 0x01)
	unit.PayloadType = 96
	u.Feed(unit)

	u.Feed(makeAvcUnit(2, 0))                         // 空payload
	u.Feed(makeAvcUnit(3, 0, 0x78, 0x00, 0x02, 0x09)) // STAP-A
	u.Feed(makeAvcUnit(4, 0, 0x5C, 0x05, 0x01))       // 没有开始的中间分片
	u.Feed(makeAvcUnit(5, 0, 0x5C, 0x45, 0x01))       // 没有开始的结束分片
	u.Feed(makeAvcUnit(6, 0, 0x5C, 0xC5, 0x01))       // 开始和结束同时置位
	u.Feed(makeAvcUnit(7, 0, 0x5C))                   // fua太短

	assert.Equal(t, 0, len(c.nalus))
	s := u.Stat()
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 6, s.Fed)
	assert.Equal(t, 6, s.Ignored)

	// 之后正常的分片仍然可以合成
	u.Feed(makeAvcUnit(8, 0, 0x5C, 0x85, 0x01))
	u.Feed(makeAvcUnit(9, 0, 0x5C, 0x45, 0x02))
	assert.Equal(t, 1, len(c.nalus))
	assert.Equal(t, []byte{0, 0, 0, 1, 0x45, 0x01, 0x02}, c.nalus[0])
}

func TestAvcUnpackerRestartDropsPartial(t *testing.T) {
	var c naluCollector
	u := rtprtcp.NewAvcUnpacker(c.onNalu)

	u.Feed(makeAvcUnit(1, 0, 0x5C, 0x85, 0x01))
	u.Feed(makeAvcUnit(2, 0, 0x5C, 0x81, 0x0A)) // 上一个nalu丢失了结束分片
	u.Feed(makeAvcUnit(3, 0, 0x5C, 0x41, 0x0B))
	assert.Equal(t, 1, len(c.nalus))
	assert.Equal(t, []byte{0, 0, 0, 1, 0x41, 0x0A, 0x0B}, c.nalus[0])
}
