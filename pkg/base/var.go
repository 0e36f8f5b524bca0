// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/nazalog"

var Log = nazalog.GetGlobalLogger()

// ----- rtp --------------------
const (
	// DefaultClockRate 视频流的rtp时钟频率
	DefaultClockRate = 90000

	// RtpPacketTypeAvc 原始工具抓包中的h264流使用97
	RtpPacketTypeAvc = 97
)

// ----- replay --------------------
var (
	// FallbackMsPerGrain 推导出的grain间隔为0时使用，即25 grain/s
	FallbackMsPerGrain = 40

	// ExtensionGrainFlagThreshold rtp扩展头大于该字节数时，认为是grain的开始或结束标志
	ExtensionGrainFlagThreshold = 50
)

// ----- mcast --------------------
var (
	DefaultGroupAddr = "232.0.7.1:5000"

	// DefaultSendBufferSize 未压缩码流时发送缓冲很容易满，所以设置得比较大
	DefaultSendBufferSize = 1024 * 256 * 8
)
