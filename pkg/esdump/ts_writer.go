// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package esdump

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/rtpreplay/pkg/avc"
	"github.com/q191201771/rtpreplay/pkg/base"
)

const (
	TsVideoPid      = 0x100
	TsVideoStreamId = 0xe0
)

var audNalu = []byte{0x0, 0x0, 0x0, 0x1, 0x09, 0xf0}

// TsWriter 将rtp时间戳相同的nalu合成一个access unit，作为一个PES写入ts文件
//
// PTS直接使用rtp时间戳（90kHz），PCR和视频使用同一个PID，IDR帧设置random access标志
type TsWriter struct {
	uniqueKey string
	filename  string
	fp        *os.File
	bw        *bufio.Writer
	muxer     *ts.Muxer
	err       error

	au          []byte
	auTimestamp uint32
	auIdr       bool

	frames int
}

func NewTsWriter(filename string) (*TsWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("%w. mkdir failed. err=%+v", base.ErrEsDump, err)
	}
	fp, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("%w. create file failed. err=%+v", base.ErrEsDump, err)
	}

	bw := bufio.NewWriter(fp)
	muxer := ts.NewMuxer(context.Background(), bw)
	err = muxer.AddElementaryStream(ts.PMTElementaryStream{
		ElementaryPID: TsVideoPid,
		StreamType:    ts.StreamTypeH264Video,
	})
	if err != nil {
		_ = fp.Close()
		return nil, fmt.Errorf("%w. add elementary stream failed. err=%+v", base.ErrEsDump, err)
	}
	muxer.SetPCRPID(TsVideoPid)
	if _, err = muxer.WriteTables(); err != nil {
		_ = fp.Close()
		return nil, fmt.Errorf("%w. write tables failed. err=%+v", base.ErrEsDump, err)
	}

	uk := base.GenUkTsWriter()
	Log.Infof("[%s] lifecycle new ts writer. filename=%s", uk, filename)
	return &TsWriter{
		uniqueKey: uk,
		filename:  filename,
		fp:        fp,
		bw:        bw,
		muxer:     muxer,
	}, nil
}

func (w *TsWriter) OnNalu(nalu []byte, timestamp uint32) {
	if w.err != nil {
		return
	}
	if w.au != nil && timestamp != w.auTimestamp {
		w.flushAu()
	}
	if w.au == nil {
		w.auTimestamp = timestamp
		if avc.CalcNaluType(nalu[len(avc.NaluStartCode):]) != avc.NaluTypeAud {
			w.au = append(w.au, audNalu...)
		}
	}
	if avc.CalcNaluType(nalu[len(avc.NaluStartCode):]) == avc.NaluTypeIdrSlice {
		w.auIdr = true
	}
	w.au = append(w.au, nalu...)
}

func (w *TsWriter) Close() error {
	if w.err == nil && w.au != nil {
		w.flushAu()
	}
	if err := w.bw.Flush(); err != nil && w.err == nil {
		w.err = fmt.Errorf("%w. flush failed. err=%+v", base.ErrEsDump, err)
	}
	if err := w.fp.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("%w. close failed. err=%+v", base.ErrEsDump, err)
	}
	Log.Infof("[%s] lifecycle dispose ts writer. filename=%s, frames=%d", w.uniqueKey, w.filename, w.frames)
	return w.err
}

func (w *TsWriter) flushAu() {
	clock := &ts.ClockReference{Base: int64(w.auTimestamp)}
	_, err := w.muxer.WriteData(&ts.MuxerData{
		PID: TsVideoPid,
		AdaptationField: &ts.PacketAdaptationField{
			RandomAccessIndicator: w.auIdr,
			HasPCR:                true,
			PCR:                   clock,
		},
		PES: &ts.PESData{
			Header: &ts.PESHeader{
				OptionalHeader: &ts.PESOptionalHeader{
					MarkerBits:      2,
					PTSDTSIndicator: ts.PTSDTSIndicatorOnlyPTS,
					PTS:             clock,
				},
				StreamID: TsVideoStreamId,
			},
			Data: w.au,
		},
	})
	if err != nil {
		w.err = fmt.Errorf("%w. mux failed. err=%+v", base.ErrEsDump, err)
		Log.Errorf("[%s] %+v", w.uniqueKey, w.err)
	}
	w.frames++
	w.au = nil
	w.auIdr = false
}
