// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package replay 按grain节奏循环发送抓包中的rtp包，并保证seq和timestamp跨循环连续
package replay

import (
	"time"

	"github.com/q191201771/naza/pkg/bitrate"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/capture"
	"github.com/q191201771/rtpreplay/pkg/grain"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

var Log = nazalog.GetGlobalLogger()

type SchedulerStatus int

const (
	SchedulerStatusPriming SchedulerStatus = iota
	SchedulerStatusPlaying
)

type SchedulerOption struct {
	// StatIntervalLoops 每多少个循环打印一次统计日志，为0时不打印
	StatIntervalLoops int

	// InitialSeq 输出的第一个包的seq
	InitialSeq uint16

	Clock IClock
}

var defaultSchedulerOption = SchedulerOption{
	StatIntervalLoops: 100,
	InitialSeq:        0,
	Clock:             MonotonicClock{},
}

type ModSchedulerOption func(option *SchedulerOption)

type SchedulerStat struct {
	Loops       uint64
	Packets     uint64
	Bytes       uint64
	GrainWaits  uint64        // grain边界处的等待次数，不包含循环开始时的等待
	MaxLateness time.Duration // 实际醒来时间相对于计划时间的最大延迟
}

// playbackState 只由 Scheduler 读写
type playbackState struct {
	loopIndex   uint64
	grainIndex  uint64 // 本次循环内的grain序号
	grainOffset uint64 // 之前所有循环的grain总数
	lastSeen    uint32 // 上一个包的原始timestamp
	nextSeq     uint16
	anchor      time.Time
}

type Scheduler struct {
	uniqueKey string
	option    SchedulerOption

	store  *capture.PayloadStore
	sender ISender

	status        SchedulerStatus
	model         grain.Model
	ticksPerGrain uint32
	state         playbackState

	stat     SchedulerStat
	br       bitrate.Bitrate
	packet   []byte
	sendDump base.LogDump
}

func NewScheduler(store *capture.PayloadStore, sender ISender, modOptions ...ModSchedulerOption) *Scheduler {
	option := defaultSchedulerOption
	for _, fn := range modOptions {
		fn(&option)
	}
	uk := base.GenUkScheduler()
	s := &Scheduler{
		uniqueKey: uk,
		option:    option,
		store:     store,
		sender:    sender,
		status:    SchedulerStatusPriming,
		br: bitrate.New(func(option *bitrate.Option) {
			option.WindowMs = 5000
		}),
		sendDump: base.NewLogDump(Log, 32),
	}
	Log.Infof("[%s] lifecycle new scheduler. packets=%d", uk, store.Len())
	return s
}

// Prime 记录grain间隔和起始时间，之后进入Playing状态
func (s *Scheduler) Prime(model grain.Model) {
	s.model = model
	s.ticksPerGrain = model.TicksPerGrain()
	s.state = playbackState{
		nextSeq: s.option.InitialSeq,
		anchor:  s.option.Clock.Now(),
	}
	s.status = SchedulerStatusPlaying
	Log.Infof("[%s] playing. %s, ticksPerGrain=%d", s.uniqueKey, model.DebugString(), s.ticksPerGrain)
}

// RunLoop 无限循环发送，只有出错时才返回
func (s *Scheduler) RunLoop() error {
	for {
		if err := s.PlayOnce(); err != nil {
			return err
		}
	}
}

// PlayOnce 按抓包顺序发送一遍所有包
func (s *Scheduler) PlayOnce() error {
	if s.status != SchedulerStatusPlaying {
		Log.Warnf("[%s] play before prime, use default model.", s.uniqueKey)
		s.Prime(grain.NewModel(s.store.Len(), 1, s.store.FirstTimestamp(), s.store.LastTimestamp(), grain.ModelOption{}))
	}

	st := &s.state
	st.grainIndex = 0
	if s.store.Len() == 0 {
		return nil
	}

	first, err := rtprtcp.ParseRtpUnit(s.store.At(0))
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	st.lastSeen = first.Timestamp
	if st.loopIndex != 0 {
		s.waitGrain(st.grainOffset)
	}

	for i := 0; i < s.store.Len(); i++ {
		unit, err := rtprtcp.ParseRtpUnit(s.store.At(i))
		if err != nil {
			return nazaerrors.Wrap(err)
		}

		if unit.Timestamp != st.lastSeen {
			st.grainIndex++
			s.waitGrain(st.grainOffset + st.grainIndex)
			s.stat.GrainWaits++
			st.lastSeen = unit.Timestamp
		}

		if s.sendDump.ShouldDump() {
			s.sendDump.Outf("[%s] send. loop=%d, grain=%d, seq=%d, ts=%d -> seq=%d, ts=%d",
				s.uniqueKey, st.loopIndex, st.grainIndex, unit.Seq, unit.Timestamp,
				st.nextSeq, uint32(st.grainOffset+st.grainIndex)*s.ticksPerGrain)
		}
		unit.Seq = st.nextSeq
		st.nextSeq++
		unit.Timestamp = uint32(st.grainOffset+st.grainIndex) * s.ticksPerGrain

		s.packet = s.ensurePacketBuf(unit.PacketLength())
		unit.PackTo(s.packet)
		if err = s.sender.Write(s.packet); err != nil {
			return base.NewErrSend(unit.Seq, err)
		}

		s.stat.Packets++
		s.stat.Bytes += uint64(len(s.packet))
		s.br.Add(len(s.packet))
	}

	grains := uint64(s.model.GrainCount)
	if st.grainIndex+1 > grains {
		grains = st.grainIndex + 1
	}
	st.grainOffset += grains
	st.loopIndex++
	s.stat.Loops++

	if s.option.StatIntervalLoops > 0 && st.loopIndex%uint64(s.option.StatIntervalLoops) == 0 {
		Log.Infof("[%s] stat. loops=%d, packets=%d, bytes=%d, bitrate=%dkbit/s, maxLateness=%v, nextSeq=%d",
			s.uniqueKey, s.stat.Loops, s.stat.Packets, s.stat.Bytes, int(s.br.Rate()), s.stat.MaxLateness, st.nextSeq)
	}
	return nil
}

func (s *Scheduler) Status() SchedulerStatus {
	return s.status
}

func (s *Scheduler) Stat() SchedulerStat {
	return s.stat
}

func (s *Scheduler) UniqueKey() string {
	return s.uniqueKey
}

// ---------------------------------------------------------------------------------------------------------------------

// waitGrain 阻塞到第n个grain的计划开始时间
func (s *Scheduler) waitGrain(n uint64) {
	clock := s.option.Clock
	target := s.state.anchor.Add(time.Duration(n) * s.model.Interval)
	clock.SleepUntil(target)
	if lateness := clock.Now().Sub(target); lateness > s.stat.MaxLateness {
		s.stat.MaxLateness = lateness
	}
}

func (s *Scheduler) ensurePacketBuf(n int) []byte {
	if cap(s.packet) < n {
		return make([]byte, n)
	}
	return s.packet[:n]
}
