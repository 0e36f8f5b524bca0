// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- pkg/logic -----------------------------------------------------------------------------------------------------

// ErrConfiguration 参数缺失或非法，进程打印用法后退出
var ErrConfiguration = errors.New("rtpreplay.logic: invalid configuration")

func NewErrConfiguration(format string, v ...interface{}) error {
	return fmt.Errorf("%w. %s", ErrConfiguration, fmt.Sprintf(format, v...))
}

// ----- pkg/capture ---------------------------------------------------------------------------------------------------

// ErrCaptureRead 抓包文件不可读，或者读不到任何包
var ErrCaptureRead = errors.New("rtpreplay.capture: read capture failed")

func NewErrCaptureRead(filename string, err error) error {
	return fmt.Errorf("%w. filename=%s, err=%v", ErrCaptureRead, filename, err)
}

// ----- pkg/rtprtcp ---------------------------------------------------------------------------------------------------

// ErrMalformedPacket rtp包解析失败
var ErrMalformedPacket = errors.New("rtpreplay.rtprtcp: malformed rtp packet")

func NewErrMalformedPacket(need, actual int, msg string) error {
	return fmt.Errorf("%w. need=%d, actual=%d, msg=%s", ErrMalformedPacket, need, actual, msg)
}

// ----- pkg/replay ----------------------------------------------------------------------------------------------------

// ErrSend 发送失败，不重试
var ErrSend = errors.New("rtpreplay.replay: send failed")

func NewErrSend(seq uint16, err error) error {
	return fmt.Errorf("%w. seq=%d, err=%v", ErrSend, seq, err)
}

// ----- pkg/esdump ----------------------------------------------------------------------------------------------------

var ErrEsDump = errors.New("rtpreplay.esdump: fxxk")

// ---------------------------------------------------------------------------------------------------------------------
