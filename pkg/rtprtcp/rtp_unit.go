// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"fmt"

	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/rtpreplay/pkg/base"
)

// -----------------------------------
// rfc3550 5.1 RTP Fixed Header Fields
// -----------------------------------
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |V=2|P|X|  CC   |M|     PT      |       sequence number         |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                           timestamp                           |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |           synchronization source (SSRC) identifier            |
// +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// |            contributing source (CSRC) identifiers             |
// |                             ....                              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// -----------------------------------
// rfc3550 5.3.1 RTP Header Extension
// -----------------------------------
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |      defined by profile       |           length              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                        header extension                       |
// |                             ....                              |

const (
	RtpFixedHeaderLength     = 12
	RtpExtensionHeaderLength = 4

	DefaultRtpVersion = 2

	// ExtensionProfileOneByte rfc8285 one-byte header的profile id，重新打包时固定写这个值
	ExtensionProfileOneByte = 0xBEDE
)

// RtpUnit 一个rtp包的解析结果
//
// 注意，header长度不单独存储，总是由 CsrcCount 和 Extension 、 ExtensionLength 计算得到，
// 见 HeaderLength
type RtpUnit struct {
	Version     uint8  // 2b
	Padding     bool   // 1b
	Extension   bool   // 1b
	CsrcCount   uint8  // 4b
	Mark        bool   // 1b
	PayloadType uint8  // 7b
	Seq         uint16 // 16b
	Timestamp   uint32 // 32b samples
	Ssrc        uint32 // 32b Synchronization source

	ExtensionLength uint16 // 扩展头中的length字段，单位是4字节，不包含扩展头自身的4字节

	Payload []byte
}

// ParseRtpUnit 解析rtp包
//
// 注意，返回的 RtpUnit.Payload 引用参数<b>的内存块
func ParseRtpUnit(b []byte) (unit RtpUnit, err error) {
	if len(b) < RtpFixedHeaderLength {
		err = base.NewErrMalformedPacket(RtpFixedHeaderLength, len(b), "fixed header")
		return
	}

	unit.Version = b[0] >> 6
	unit.Padding = (b[0]>>5)&0x1 == 1
	unit.Extension = (b[0]>>4)&0x1 == 1
	unit.CsrcCount = b[0] & 0xF
	unit.Mark = b[1]>>7 == 1
	unit.PayloadType = b[1] & 0x7F
	unit.Seq = bele.BeUint16(b[2:])
	unit.Timestamp = bele.BeUint32(b[4:])
	unit.Ssrc = bele.BeUint32(b[8:])

	offset := RtpFixedHeaderLength + 4*int(unit.CsrcCount)
	if unit.Extension {
		if len(b) < offset+RtpExtensionHeaderLength {
			err = base.NewErrMalformedPacket(offset+RtpExtensionHeaderLength, len(b), "extension header")
			return
		}
		// 扩展头前2字节是profile相关的id，后2字节是长度
		unit.ExtensionLength = bele.BeUint16(b[offset+2:])
	}

	hl := unit.HeaderLength()
	if len(b) < hl {
		err = base.NewErrMalformedPacket(hl, len(b), "header")
		return
	}
	unit.Payload = b[hl:]
	return
}

// HeaderLength 包含固定头、csrc列表以及扩展头（如果有）
func (u *RtpUnit) HeaderLength() int {
	l := RtpFixedHeaderLength + 4*int(u.CsrcCount)
	if u.Extension {
		l += u.ExtensionRegionLength()
	}
	return l
}

// ExtensionRegionLength 扩展头的总字节数，包含4字节的扩展头头部，没有扩展头时返回0
func (u *RtpUnit) ExtensionRegionLength() int {
	if !u.Extension {
		return 0
	}
	return RtpExtensionHeaderLength + 4*int(u.ExtensionLength)
}

// PacketLength 打包后的总长度
func (u *RtpUnit) PacketLength() int {
	return u.HeaderLength() + len(u.Payload)
}

// Pack 打包成rtp包，内存块为新申请
//
// 注意，csrc列表以及扩展头的内容不会保留，扩展头只写入固定的profile id和原始的length字段，其余填0
func (u *RtpUnit) Pack() []byte {
	out := make([]byte, u.PacketLength())
	u.PackTo(out)
	return out
}

// PackTo @param out 传出参数，注意，调用方保证长度>=PacketLength()
func (u *RtpUnit) PackTo(out []byte) {
	out[0] = (u.CsrcCount & 0xF) | (u.Version << 6)
	if u.Padding {
		out[0] |= 0x20
	}
	if u.Extension {
		out[0] |= 0x10
	}
	out[1] = u.PayloadType & 0x7F
	if u.Mark {
		out[1] |= 0x80
	}
	bele.BePutUint16(out[2:], u.Seq)
	bele.BePutUint32(out[4:], u.Timestamp)
	bele.BePutUint32(out[8:], u.Ssrc)

	hl := u.HeaderLength()
	for i := RtpFixedHeaderLength; i < hl; i++ {
		out[i] = 0
	}
	if u.Extension {
		offset := RtpFixedHeaderLength + 4*int(u.CsrcCount)
		bele.BePutUint16(out[offset:], ExtensionProfileOneByte)
		bele.BePutUint16(out[offset+2:], u.ExtensionLength)
	}
	copy(out[hl:], u.Payload)
}

func (u *RtpUnit) DebugString() string {
	return fmt.Sprintf("v=%d, p=%t, x=%t, cc=%d, m=%t, pt=%d, seq=%d, ts=%d, ssrc=%d, hl=%d, len=%d",
		u.Version, u.Padding, u.Extension, u.CsrcCount, u.Mark, u.PayloadType, u.Seq, u.Timestamp, u.Ssrc,
		u.HeaderLength(), u.PacketLength())
}
