// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package replay

import "time"

// IClock 调度器唯一的阻塞点
type IClock interface {
	Now() time.Time

	// SleepUntil 阻塞到t，t已经过去时立即返回
	SleepUntil(t time.Time)
}

// ISender 发送一个完整的rtp包，出错不重试
type ISender interface {
	Write(b []byte) error
}

// MonotonicClock time.Now 返回的时间带有单调时钟读数，time.Until 基于单调时钟计算，不受系统时间调整影响
type MonotonicClock struct{}

func (MonotonicClock) Now() time.Time {
	return time.Now()
}

func (MonotonicClock) SleepUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}
