// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazalog"
)

// LogDump 逐包日志的开关。trace级别时每次都打印，debug级别时只打印前 maxNum 次，更高级别时不打印
type LogDump struct {
	log    nazalog.Logger
	maxNum int
	count  int
}

func NewLogDump(log nazalog.Logger, maxNum int) LogDump {
	return LogDump{
		log:    log,
		maxNum: maxNum,
	}
}

// ShouldDump 返回false时不需要构造 Outf 的参数
func (ld *LogDump) ShouldDump() bool {
	switch ld.log.GetOption().Level {
	case nazalog.LevelTrace:
		return true
	case nazalog.LevelDebug:
		if ld.count >= ld.maxNum {
			return false
		}
		ld.count++
		return true
	}
	return false
}

// Outf 日志中的源码位置是 Outf 的调用方
func (ld *LogDump) Outf(format string, v ...interface{}) {
	ld.log.Out(ld.log.GetOption().Level, 2, fmt.Sprintf(format, v...))
}
