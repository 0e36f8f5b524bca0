// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// rfc6184 5.2 Table 1，rtp payload第一个字节的低5位：
// 1-23 为Single NAL unit，24 STAP-A，25 STAP-B，26 MTAP16，27 MTAP24，28 FU-A，29 FU-B
const (
	NaluTypeAvcSingleMax = 23
	NaluTypeAvcStapa     = 24
	NaluTypeAvcFua       = 28
	NaluTypeAvcFub       = 29
)

// CompareSeq 按16位序号翻转后的距离比较，a在b之后返回1，相等返回0，a在b之前返回-1
func CompareSeq(a, b uint16) int {
	return sign(int(int16(a - b)))
}

// SubSeq a减b，结果在[-32768, 32767]范围内
//
// 比如 SubSeq(0, 65535) 为1， SubSeq(65535, 0) 为-1
func SubSeq(a, b uint16) int {
	return int(int16(a - b))
}

// CompareTimestamp 与 CompareSeq 相同，用于32位rtp时间戳
func CompareTimestamp(a, b uint32) int {
	return sign(int(int32(a - b)))
}

func sign(d int) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
