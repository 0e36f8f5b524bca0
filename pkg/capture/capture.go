// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package capture 从抓包文件中读取rtp包（udp payload），并缓存在内存中供循环回放
package capture

import (
	"path/filepath"
	"strings"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

// OnPayload 按抓包顺序回调每个udp payload
//
// 注意，回调结束后 payload 的内存块可能被复用，需要持有的话调用方自行拷贝
type OnPayload func(payload []byte) error

// ISource 可重复遍历的抓包源，每次调用 Visit 都从头开始遍历到文件结尾
type ISource interface {
	Visit(onPayload OnPayload) error
	Name() string
}

// OpenSource 根据文件后缀选择抓包源，.laldump和.dump为lal的dump文件格式，其他按pcap或pcapng处理
func OpenSource(filename string) ISource {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".laldump", ".dump":
		return NewDumpFileSource(filename)
	}
	return NewPcapSource(filename)
}
