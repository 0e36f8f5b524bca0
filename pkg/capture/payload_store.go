// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package capture

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

// OnRtpUnit 第一遍遍历时，每个包解析后的回调，比如喂给grain边界检测器
type OnRtpUnit func(unit rtprtcp.RtpUnit)

// PayloadStore 按抓包顺序存放的全部rtp包，构建完成后只读
type PayloadStore struct {
	payloads [][]byte

	firstTimestamp uint32
	lastTimestamp  uint32
	totalBytes     int
}

// BuildPayloadStore 遍历两次抓包源
//
// 第一遍统计包数并解析每个包（解析失败直接返回），第二遍一次性分配好空间后拷贝数据
// 两遍的包数不一致时返回ErrCaptureRead
func BuildPayloadStore(src ISource, observer OnRtpUnit) (*PayloadStore, error) {
	var (
		count       int
		first, last uint32
	)
	err := src.Visit(func(payload []byte) error {
		unit, err := rtprtcp.ParseRtpUnit(payload)
		if err != nil {
			return fmt.Errorf("%w. index=%d", err, count)
		}
		if count == 0 {
			first = unit.Timestamp
		}
		last = unit.Timestamp
		count++
		if observer != nil {
			observer(unit)
		}
		return nil
	})
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}
	if count == 0 {
		return nil, base.NewErrCaptureRead(src.Name(), fmt.Errorf("no udp packet"))
	}

	s := &PayloadStore{
		payloads:       make([][]byte, count),
		firstTimestamp: first,
		lastTimestamp:  last,
	}
	var index int
	err = src.Visit(func(payload []byte) error {
		if index >= count {
			return fmt.Errorf("%w. packet count changed between passes. count=%d", base.ErrCaptureRead, count)
		}
		b := make([]byte, len(payload))
		copy(b, payload)
		s.payloads[index] = b
		s.totalBytes += len(b)
		index++
		return nil
	})
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}
	if index != count {
		return nil, fmt.Errorf("%w. packet count changed between passes. first=%d, second=%d", base.ErrCaptureRead, count, index)
	}

	Log.Infof("[%s] payload store built. packets=%d, bytes=%d, timestamp=[%d, %d]",
		src.Name(), count, s.totalBytes, first, last)
	return s, nil
}

// NewPayloadStore 直接使用内存中的包构建，主要用于测试
func NewPayloadStore(payloads [][]byte) (*PayloadStore, error) {
	return BuildPayloadStore(&memorySource{payloads: payloads}, nil)
}

func (s *PayloadStore) Len() int {
	return len(s.payloads)
}

func (s *PayloadStore) At(index int) []byte {
	return s.payloads[index]
}

func (s *PayloadStore) FirstTimestamp() uint32 {
	return s.firstTimestamp
}

func (s *PayloadStore) LastTimestamp() uint32 {
	return s.lastTimestamp
}

func (s *PayloadStore) TotalBytes() int {
	return s.totalBytes
}

// ---------------------------------------------------------------------------------------------------------------------

type memorySource struct {
	payloads [][]byte
}

func (m *memorySource) Name() string {
	return "memory"
}

func (m *memorySource) Visit(onPayload OnPayload) error {
	for _, p := range m.payloads {
		if err := onPayload(p); err != nil {
			return err
		}
	}
	return nil
}
