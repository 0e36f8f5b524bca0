// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/rtpreplay/pkg/base"
)

// Entry 正常情况下不会返回，只有出错时返回
func Entry(config *Config) error {
	dir, _ := os.Getwd()
	Log.Infof("wd: %s", dir)
	Log.Infof("args: %s", strings.Join(os.Args, " "))
	Log.Infof("bininfo: %s", bininfo.StringifySingleLine())
	Log.Infof("version: %s", base.ReplayFullInfo)
	Log.Infof("config: %+v", config)

	if config.PprofConfig.Enable {
		go runWebPprof(config.PprofConfig.Addr)
	}

	ctx := NewReplayContext(config)
	defer ctx.Dispose()
	if err := ctx.Prime(); err != nil {
		return err
	}
	return ctx.RunLoop()
}

func runWebPprof(addr string) {
	Log.Infof("start web pprof listen. addr=%s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		Log.Error(err)
		return
	}
}
