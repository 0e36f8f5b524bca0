// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/logic"
)

func main() {
	defer nazalog.Sync()

	config := parseFlagAndLoadConf()

	if err := nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "initial log failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	nazalog.Info("initial log succ.")

	err := logic.Entry(config)
	base.FatalExit(err)
}

func parseFlagAndLoadConf() *logic.Config {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	cf := flag.String("c", "", "specify conf file")
	source := flag.String("i", "", "specify capture file, .pcap .pcapng or .laldump")
	adapter := flag.String("a", "", "specify ip addr of the network adapter to send from")
	msPerGrain := flag.Int("g", 0, "specify ms per grain, 0 means derive from capture")
	policy := flag.String("p", "", "specify grain policy, marker or extension")
	flag.Parse()
	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.ReplayFullInfo)
		os.Exit(0)
	}

	config, err := logic.LoadConf(*cf)
	if err != nil {
		usageAndExit(err)
	}

	// 命令行参数优先于配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			config.Source = *source
		case "a":
			config.AdapterAddr = *adapter
		case "g":
			config.MsPerGrain = *msPerGrain
		case "p":
			config.GrainPolicy = *policy
		}
	})

	if err = config.Check(); err != nil {
		usageAndExit(err)
	}
	return config
}

func usageAndExit(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n\n", err)
	flag.Usage()
	_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/rtpreplay -i ./testdata/nmos.pcap -a 192.168.1.10
  ./bin/rtpreplay -i ./testdata/nmos.pcap -a 192.168.1.10 -g 40 -p marker
  ./bin/rtpreplay -c ./conf/rtpreplay.conf.json
`)
	base.OsExitAndWaitPressIfWindows(1)
}
