// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package grain

import (
	"fmt"
	"time"

	"github.com/q191201771/rtpreplay/pkg/base"
)

// Model 从抓包中推导出的grain信息，计算一次之后只读
type Model struct {
	PacketCount    int
	GrainCount     int
	FirstTimestamp uint32
	LastTimestamp  uint32
	ClockRate      int

	// SpanMs 第一个包到最后一个包的时间跨度
	SpanMs int

	// Interval 名义上的grain间隔，整数毫秒
	Interval time.Duration

	// Derived 为false表示使用了外部指定的间隔或者兜底值
	Derived bool
}

type ModelOption struct {
	ClockRate int

	// MsPerGrain 大于0时优先使用
	MsPerGrain int
}

// NewModel
//
// 间隔 = (最后一个包的时间戳 - 第一个包的时间戳) / (grain数 - 1)，换算成毫秒后向下取整。
// grain数不大于1时使用整个跨度。结果为0时使用兜底值 base.FallbackMsPerGrain 。
func NewModel(packetCount, grainCount int, firstTimestamp, lastTimestamp uint32, option ModelOption) Model {
	if option.ClockRate <= 0 {
		option.ClockRate = base.DefaultClockRate
	}
	m := Model{
		PacketCount:    packetCount,
		GrainCount:     grainCount,
		FirstTimestamp: firstTimestamp,
		LastTimestamp:  lastTimestamp,
		ClockRate:      option.ClockRate,
	}

	// uint32减法，处理时间戳翻转
	spanTicks := uint64(lastTimestamp - firstTimestamp)
	m.SpanMs = int(spanTicks * 1000 / uint64(option.ClockRate))

	var derivedMs int
	if grainCount > 1 {
		derivedMs = int(spanTicks * 1000 / uint64(option.ClockRate) / uint64(grainCount-1))
	} else {
		derivedMs = m.SpanMs
	}

	switch {
	case option.MsPerGrain > 0:
		m.Interval = time.Duration(option.MsPerGrain) * time.Millisecond
	case derivedMs > 0:
		m.Interval = time.Duration(derivedMs) * time.Millisecond
		m.Derived = true
	default:
		Log.Warnf("derived grain interval is zero, use fallback. span=%dms, grains=%d, fallback=%dms",
			m.SpanMs, grainCount, base.FallbackMsPerGrain)
		m.Interval = time.Duration(base.FallbackMsPerGrain) * time.Millisecond
	}
	return m
}

// TicksPerGrain 一个grain间隔对应的rtp时间戳增量，最小为1
func (m Model) TicksPerGrain() uint32 {
	ticks := m.Interval.Milliseconds() * int64(m.ClockRate) / 1000
	if ticks < 1 {
		return 1
	}
	return uint32(ticks)
}

func (m Model) DebugString() string {
	return fmt.Sprintf("packets=%d, grains=%d, first=%d, last=%d, span=%dms, interval=%s, derived=%t",
		m.PacketCount, m.GrainCount, m.FirstTimestamp, m.LastTimestamp, m.SpanMs, m.Interval, m.Derived)
}
