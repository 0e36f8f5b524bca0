// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/q191201771/naza/pkg/nazalog"
)

// OsExitAndWaitPressIfWindows windows上退出进程前等待回车
func OsExitAndWaitPressIfWindows(code int) {
	if runtime.GOOS == "windows" {
		_, _ = fmt.Fprintf(os.Stderr, "<hit enter to exit>")
		r := bufio.NewReader(os.Stdin)
		_, _ = r.ReadByte()
	}
	os.Exit(code)
}

// FatalExit 打印错误日志后退出进程
func FatalExit(err error) {
	Log.Errorf("exit. err=%+v", err)
	nazalog.Sync()
	OsExitAndWaitPressIfWindows(1)
}
