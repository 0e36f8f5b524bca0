// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "strings"

// 版本信息相关
// 一部分版本信息使用了naza.bininfo，另外一些信息在本文件提供

// ReplayVersion 整个工程的版本号。注意，该变量由外部脚本修改维护，不要手动在代码中修改
//
const ReplayVersion = "v0.1.0"

// ConfVersion 配置文件的版本号
//
const ConfVersion = "v0.1.0"

var (
	ReplayLibraryName = "rtpreplay"
	ReplayGithubRepo  = "github.com/q191201771/rtpreplay"

	// ReplayFullInfo e.g. rtpreplay v0.1.0 (github.com/q191201771/rtpreplay)
	ReplayFullInfo = ReplayLibraryName + " " + ReplayVersion + " (" + ReplayGithubRepo + ")"

	// ReplayVersionDot e.g. 0.1.0
	ReplayVersionDot string
)

func init() {
	ReplayVersionDot = strings.TrimPrefix(ReplayVersion, "v")
}
