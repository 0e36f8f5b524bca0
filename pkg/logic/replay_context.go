// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/capture"
	"github.com/q191201771/rtpreplay/pkg/esdump"
	"github.com/q191201771/rtpreplay/pkg/grain"
	"github.com/q191201771/rtpreplay/pkg/mcast"
	"github.com/q191201771/rtpreplay/pkg/replay"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

type ReplayContextOption struct {
	// Sender 不为nil时使用外部的发送对象，不再创建组播socket
	Sender replay.ISender

	// Clock 不为nil时替换调度器的时钟
	Clock replay.IClock
}

type ModReplayContextOption func(option *ReplayContextOption)

// ReplayContext 一次回放任务的全部状态，由顶层持有，依次传递给各个阶段
//
// Prime 完成之后 store 和 model 只读
type ReplayContext struct {
	uniqueKey string
	config    *Config
	option    ReplayContextOption

	source    capture.ISource
	detector  grain.IDetector
	store     *capture.PayloadStore
	model     grain.Model
	sender    replay.ISender
	mcast     *mcast.Sender
	scheduler *replay.Scheduler
}

func NewReplayContext(config *Config, modOptions ...ModReplayContextOption) *ReplayContext {
	var option ReplayContextOption
	for _, fn := range modOptions {
		fn(&option)
	}
	uk := base.GenUkContext()
	Log.Infof("[%s] lifecycle new replay context. source=%s, adapter=%s, group=%s",
		uk, config.Source, config.AdapterAddr, config.GroupAddr)
	return &ReplayContext{
		uniqueKey: uk,
		config:    config,
		option:    option,
		source:    capture.OpenSource(config.Source),
	}
}

// Prime 读取抓包、推导grain间隔、可选地导出es流、创建发送对象，完成后进入Playing状态
func (ctx *ReplayContext) Prime() error {
	policy, err := grain.ParsePolicy(ctx.config.GrainPolicy)
	if err != nil {
		return err
	}
	if ctx.detector, err = grain.NewDetector(policy); err != nil {
		return err
	}

	ctx.store, err = capture.BuildPayloadStore(ctx.source, ctx.detector.Feed)
	if err != nil {
		return nazaerrors.Wrap(err)
	}

	ctx.model = grain.NewModel(ctx.store.Len(), ctx.detector.GrainCount(),
		ctx.store.FirstTimestamp(), ctx.store.LastTimestamp(), grain.ModelOption{
			ClockRate:  ctx.config.ClockRate,
			MsPerGrain: ctx.config.MsPerGrain,
		})
	Log.Infof("[%s] grain model. policy=%s, events=%d, %s",
		ctx.uniqueKey, policy, ctx.detector.Events(), ctx.model.DebugString())

	if ctx.config.EsDumpConfig.Enable {
		// es dump只是调试用途，失败不影响回放
		if err := ctx.dumpEs(); err != nil {
			Log.Errorf("[%s] es dump failed. err=%+v", ctx.uniqueKey, err)
		}
	}

	if ctx.option.Sender != nil {
		ctx.sender = ctx.option.Sender
	} else {
		ctx.mcast, err = mcast.NewSender(func(option *mcast.SenderOption) {
			option.AdapterAddr = ctx.config.AdapterAddr
			option.GroupAddr = ctx.config.GroupAddr
			option.MulticastTtl = ctx.config.MulticastTtl
			option.MulticastLoopback = ctx.config.MulticastLoopback
			option.SendBufferSize = ctx.config.SendBufferSize
		})
		if err != nil {
			return err
		}
		ctx.sender = ctx.mcast
	}

	ctx.scheduler = replay.NewScheduler(ctx.store, ctx.sender, func(option *replay.SchedulerOption) {
		option.StatIntervalLoops = ctx.config.StatIntervalLoops
		if ctx.option.Clock != nil {
			option.Clock = ctx.option.Clock
		}
	})
	ctx.scheduler.Prime(ctx.model)
	return nil
}

// RunLoop 调用前必须先调用 Prime
func (ctx *ReplayContext) RunLoop() error {
	return ctx.scheduler.RunLoop()
}

func (ctx *ReplayContext) Dispose() {
	if ctx.mcast != nil {
		_ = ctx.mcast.Dispose()
	}
	Log.Infof("[%s] lifecycle dispose replay context.", ctx.uniqueKey)
}

func (ctx *ReplayContext) Store() *capture.PayloadStore {
	return ctx.store
}

func (ctx *ReplayContext) Model() grain.Model {
	return ctx.model
}

func (ctx *ReplayContext) Scheduler() *replay.Scheduler {
	return ctx.scheduler
}

func (ctx *ReplayContext) UniqueKey() string {
	return ctx.uniqueKey
}

// ---------------------------------------------------------------------------------------------------------------------

func (ctx *ReplayContext) dumpEs() error {
	c := ctx.config.EsDumpConfig

	var sinks []esdump.INaluSink
	closeSinks := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}
	if c.H264Filename != "" {
		w, err := esdump.NewAnnexbWriter(c.H264Filename)
		if err != nil {
			return err
		}
		sinks = append(sinks, w)
	}
	if c.TsFilename != "" {
		w, err := esdump.NewTsWriter(c.TsFilename)
		if err != nil {
			closeSinks()
			return err
		}
		sinks = append(sinks, w)
	}

	d := esdump.NewDumper(sinks, func(option *rtprtcp.AvcUnpackerOption) {
		option.PayloadType = uint8(c.PayloadType)
		option.MaxSingleNaluSize = c.MaxSingleNaluSize
	})
	for i := 0; i < ctx.store.Len(); i++ {
		unit, err := rtprtcp.ParseRtpUnit(ctx.store.At(i))
		if err != nil {
			closeSinks()
			return err
		}
		d.Feed(unit)
	}
	return d.Close()
}
