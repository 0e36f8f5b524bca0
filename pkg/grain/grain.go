// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package grain 判断抓包中grain（帧或场）的边界，并推导grain之间的时间间隔
package grain

import (
	"fmt"
	"strings"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

var Log = nazalog.GetGlobalLogger()

type Policy string

const (
	// PolicyMarker rtp包头中的marker位表示一个grain的结束
	PolicyMarker Policy = "marker"

	// PolicyExtensionSize 扩展头足够大的包是grain开始或结束的标志包，
	// 每个grain有开始和结束两个标志包，所以计数需要除以2
	PolicyExtensionSize Policy = "extension"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyMarker:
		return PolicyMarker, nil
	case PolicyExtensionSize:
		return PolicyExtensionSize, nil
	}
	return "", base.NewErrConfiguration("unknown grain policy. policy=%s", s)
}

// IDetector 在抓包读取阶段逐包调用 Feed ，读取结束后调用 GrainCount
type IDetector interface {
	Feed(unit rtprtcp.RtpUnit)

	// Events 目前为止观察到的边界事件数
	Events() int

	// GrainCount 整个抓包中的grain数量
	GrainCount() int
}

func NewDetector(policy Policy) (IDetector, error) {
	switch policy {
	case PolicyMarker:
		return &MarkerDetector{}, nil
	case PolicyExtensionSize:
		return &ExtensionSizeDetector{Threshold: base.ExtensionGrainFlagThreshold}, nil
	}
	return nil, base.NewErrConfiguration("unknown grain policy. policy=%s", policy)
}

// ---------------------------------------------------------------------------------------------------------------------

type MarkerDetector struct {
	packets      int
	events       int
	sinceLastEnd int // 最后一个marker之后的包数
}

func (d *MarkerDetector) Feed(unit rtprtcp.RtpUnit) {
	d.packets++
	if unit.Mark {
		d.events++
		d.sinceLastEnd = 0
		return
	}
	d.sinceLastEnd++
}

func (d *MarkerDetector) Events() int {
	return d.events
}

// GrainCount 最后一个marker之后如果还有包，这些包属于一个没有结束的grain，也计算在内
func (d *MarkerDetector) GrainCount() int {
	n := d.events
	if d.sinceLastEnd > 0 {
		n++
	}
	return n
}

// ---------------------------------------------------------------------------------------------------------------------

type ExtensionSizeDetector struct {
	Threshold int

	packets int
	events  int
}

func (d *ExtensionSizeDetector) Feed(unit rtprtcp.RtpUnit) {
	d.packets++
	if unit.Extension && unit.ExtensionRegionLength() > d.Threshold {
		d.events++
	}
}

func (d *ExtensionSizeDetector) Events() int {
	return d.events
}

// GrainCount 观察到了包但是没有任何标志包时，认为整个抓包是一个grain
func (d *ExtensionSizeDetector) GrainCount() int {
	n := d.events / 2
	if n == 0 && d.packets > 0 {
		n = 1
	}
	return n
}

// ---------------------------------------------------------------------------------------------------------------------

func (p Policy) String() string {
	return string(p)
}

func DebugString(d IDetector) string {
	return fmt.Sprintf("%T events=%d grains=%d", d, d.Events(), d.GrainCount())
}
