// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"encoding/hex"

	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/rtpreplay/pkg/avc"
	"github.com/q191201771/rtpreplay/pkg/base"
)

// OnNalu
//
// @param nalu:      Annex-B格式，包含4字节起始码。内存块为新申请，回调结束后内部不再使用
// @param timestamp: 完成该nalu的rtp包的时间戳
type OnNalu func(nalu []byte, timestamp uint32)

type AvcUnpackerOption struct {
	// PayloadType 只处理该payload type的rtp包
	PayloadType uint8

	// MaxSingleNaluSize 单一nalu的rtp包，payload不超过该值时才认为是完整的nalu
	MaxSingleNaluSize int
}

var defaultAvcUnpackerOption = AvcUnpackerOption{
	PayloadType:       base.RtpPacketTypeAvc,
	MaxSingleNaluSize: 1500,
}

type ModAvcUnpackerOption func(option *AvcUnpackerOption)

// AvcUnpackerStat 按nalu类型统计
type AvcUnpackerStat struct {
	Fed        int
	Skipped    int
	Ignored    int
	NaluCount  map[string]int
	NaluTotal  int
	BytesTotal int
}

// AvcUnpacker 将h264的rtp包（Single NAL unit、FU-A）重新合成Annex-B格式的nalu
//
// 只用于调试观察，尽力而为，遇到无法识别的包只打日志不返回错误
type AvcUnpacker struct {
	option AvcUnpackerOption
	onNalu OnNalu

	acc     []byte // 正在合成的nalu，nil表示当前没有在合成
	started bool

	stat AvcUnpackerStat
}

func NewAvcUnpacker(onNalu OnNalu, modOptions ...ModAvcUnpackerOption) *AvcUnpacker {
	option := defaultAvcUnpackerOption
	for _, fn := range modOptions {
		fn(&option)
	}
	return &AvcUnpacker{
		option: option,
		onNalu: onNalu,
		stat: AvcUnpackerStat{
			NaluCount: make(map[string]int),
		},
	}
}

// Feed 输入rtp包，按照抓包顺序
func (r *AvcUnpacker) Feed(unit RtpUnit) {
	if unit.PayloadType != r.option.PayloadType {
		r.stat.Skipped++
		return
	}
	r.stat.Fed++

	b := unit.Payload
	if len(b) == 0 {
		r.ignore(unit, "empty payload")
		return
	}

	outerNaluType := avc.ParseNaluType(b[0])
	switch {
	case outerNaluType >= 1 && outerNaluType <= NaluTypeAvcSingleMax:
		r.feedSingle(unit)
	case outerNaluType == NaluTypeAvcFua:
		r.feedFua(unit)
	case outerNaluType == NaluTypeAvcStapa, outerNaluType == NaluTypeAvcFub:
		r.ignore(unit, "aggregation and fu-b packets not supported")
	default:
		r.ignore(unit, "unsupported nalu type")
	}
}

func (r *AvcUnpacker) Stat() AvcUnpackerStat {
	return r.stat
}

// rfc6184 5.6.  Single NAL Unit Packet
func (r *AvcUnpacker) feedSingle(unit RtpUnit) {
	b := unit.Payload
	if len(b) > r.option.MaxSingleNaluSize {
		r.ignore(unit, "single nalu too large")
		return
	}

	switch avc.CalcNaluType(b) {
	case avc.NaluTypeSps:
		if s, err := avc.ParseSpsSummary(b); err == nil {
			Log.Infof("[AvcUnpacker] sps. profile=%d, level=%d, width=%d, height=%d",
				s.ProfileIdc, s.LevelIdc, s.Width, s.Height)
		}
	case avc.NaluTypeAud, avc.NaluTypePps, avc.NaluTypeSei, avc.NaluTypeSlice, avc.NaluTypeIdrSlice:
		// noop
	default:
		Log.Debugf("[AvcUnpacker] single nalu of uncommon type. type=%d, seq=%d", avc.CalcNaluType(b), unit.Seq)
	}

	r.flush(avc.AnnexbFrame(b), unit.Timestamp)
}

// rfc6184 5.8.  Fragmentation Units (FUs)
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// | FU indicator  |   FU header   |                               |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
// |                                                               |
// |                         FU payload                            |
// |                                                               |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// FU header:
// +---------------+
// |0|1|2|3|4|5|6|7|
// +-+-+-+-+-+-+-+-+
// |S|E|R|  Type   |
// +---------------+
//
// 常见的FU header: 0x85 IDR开始，0x05 IDR中间，0x45 IDR结束，0x81 0x01 0x41 为非IDR
func (r *AvcUnpacker) feedFua(unit RtpUnit) {
	b := unit.Payload
	if len(b) < 2 {
		r.ignore(unit, "fua too short")
		return
	}

	fuIndicator := b[0]
	fuHeader := b[1]
	startCode := (fuHeader & 0x80) != 0
	endCode := (fuHeader & 0x40) != 0

	if startCode && endCode {
		r.ignore(unit, "fua start and end both set")
		return
	}

	if startCode {
		if r.started {
			Log.Warnf("[AvcUnpacker] fua start before previous end, drop previous. len=%d", len(r.acc))
		}
		// 4字节起始码 + 1字节由fu indicator和fu header合成的nalu header
		r.acc = make([]byte, 0, len(avc.NaluStartCode)+1+len(b)-2)
		r.acc = append(r.acc, avc.NaluStartCode...)
		r.acc = append(r.acc, (fuIndicator&0xE0)|(fuHeader&0x1F))
		r.acc = append(r.acc, b[2:]...)
		r.started = true
		return
	}

	if !r.started {
		r.ignore(unit, "fua continuation without start")
		return
	}

	r.acc = append(r.acc, b[2:]...)
	if endCode {
		nalu := r.acc
		r.acc = nil
		r.started = false
		r.flush(nalu, unit.Timestamp)
	}
}

func (r *AvcUnpacker) flush(nalu []byte, timestamp uint32) {
	r.stat.NaluCount[avc.CalcNaluTypeReadable(nalu[len(avc.NaluStartCode):])]++
	r.stat.NaluTotal++
	r.stat.BytesTotal += len(nalu)
	if r.onNalu != nil {
		r.onNalu(nalu, timestamp)
	}
}

func (r *AvcUnpacker) ignore(unit RtpUnit, reason string) {
	r.stat.Ignored++
	Log.Warnf("[AvcUnpacker] ignore rtp packet, %s. seq=%d, ts=%d, len=%d, hex=%s",
		reason, unit.Seq, unit.Timestamp, len(unit.Payload), hex.EncodeToString(nazabytes.Prefix(unit.Payload, 8)))
}
