// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package esdump 将rtp包中的h264重新合成为Annex-B裸流文件或者ts文件，方便用播放器检查抓包内容
package esdump

import (
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

var Log = nazalog.GetGlobalLogger()

// INaluSink 接收合成好的nalu，Close时返回写入过程中的第一个错误
type INaluSink interface {
	OnNalu(nalu []byte, timestamp uint32)
	Close() error
}

// Dumper 将rtp包喂给 rtprtcp.AvcUnpacker ，再分发给多个sink
type Dumper struct {
	unpacker *rtprtcp.AvcUnpacker
	sinks    []INaluSink
}

func NewDumper(sinks []INaluSink, modOptions ...rtprtcp.ModAvcUnpackerOption) *Dumper {
	d := &Dumper{
		sinks: sinks,
	}
	d.unpacker = rtprtcp.NewAvcUnpacker(d.onNalu, modOptions...)
	return d
}

func (d *Dumper) Feed(unit rtprtcp.RtpUnit) {
	d.unpacker.Feed(unit)
}

// Close 关闭所有sink，返回第一个错误
func (d *Dumper) Close() (err error) {
	for _, s := range d.sinks {
		if e := s.Close(); e != nil && err == nil {
			err = e
		}
	}
	stat := d.unpacker.Stat()
	Log.Infof("es dump done. fed=%d, skipped=%d, ignored=%d, nalus=%d, bytes=%d, types=%+v",
		stat.Fed, stat.Skipped, stat.Ignored, stat.NaluTotal, stat.BytesTotal, stat.NaluCount)
	return
}

func (d *Dumper) Stat() rtprtcp.AvcUnpackerStat {
	return d.unpacker.Stat()
}

func (d *Dumper) onNalu(nalu []byte, timestamp uint32) {
	for _, s := range d.sinks {
		s.OnNalu(nalu, timestamp)
	}
}
