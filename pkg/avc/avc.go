// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import "errors"

var ErrAvc = errors.New("rtpreplay.avc: fxxk")

// NaluStartCode Annex-B的4字节起始码
var NaluStartCode = []byte{0x0, 0x0, 0x0, 0x1}

const (
	NaluTypeSlice    uint8 = 1
	NaluTypeIdrSlice uint8 = 5
	NaluTypeSei      uint8 = 6
	NaluTypeSps      uint8 = 7
	NaluTypePps      uint8 = 8
	NaluTypeAud      uint8 = 9
)

var NaluTypeMapping = map[uint8]string{
	1: "SLICE",
	5: "IDR",
	6: "SEI",
	7: "SPS",
	8: "PPS",
	9: "AUD",
}

// rfc6184 5.3.  NAL Unit Octet Usage
//
// +---------------+
// |0|1|2|3|4|5|6|7|
// +-+-+-+-+-+-+-+-+
// |F|NRI|  Type   |
// +---------------+

func ParseNaluType(v uint8) uint8 {
	return v & 0x1f
}

func ParseNri(v uint8) uint8 {
	return (v >> 5) & 0x3
}

// CalcNaluType @param nalu 不包含起始码
func CalcNaluType(nalu []byte) uint8 {
	return ParseNaluType(nalu[0])
}

func ParseNaluTypeReadable(v uint8) string {
	ret, ok := NaluTypeMapping[ParseNaluType(v)]
	if !ok {
		return "unknown"
	}
	return ret
}

// CalcNaluTypeReadable @param nalu 不包含起始码
func CalcNaluTypeReadable(nalu []byte) string {
	return ParseNaluTypeReadable(nalu[0])
}

// AnnexbFrame 在nalu前面加上4字节起始码，内存块为新申请
func AnnexbFrame(nalu []byte) []byte {
	out := make([]byte, len(NaluStartCode)+len(nalu))
	copy(out, NaluStartCode)
	copy(out[len(NaluStartCode):], nalu)
	return out
}
