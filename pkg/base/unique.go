// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "github.com/q191201771/naza/pkg/unique"

// 日志前缀，方便区分同一进程中的多个对象
const (
	UkPreScheduler   = "SCHEDULER"
	UkPreMcastSender = "MCASTSENDER"
	UkPreTsWriter    = "TSWRITER"
	UkPreAnnexbDump  = "ANNEXBDUMP"
	UkPreContext     = "CONTEXT"
)

func GenUkScheduler() string {
	return siUkScheduler.GenUniqueKey()
}

func GenUkMcastSender() string {
	return siUkMcastSender.GenUniqueKey()
}

func GenUkTsWriter() string {
	return siUkTsWriter.GenUniqueKey()
}

func GenUkAnnexbDump() string {
	return siUkAnnexbDump.GenUniqueKey()
}

func GenUkContext() string {
	return siUkContext.GenUniqueKey()
}

var (
	siUkScheduler   *unique.SingleGenerator
	siUkMcastSender *unique.SingleGenerator
	siUkTsWriter    *unique.SingleGenerator
	siUkAnnexbDump  *unique.SingleGenerator
	siUkContext     *unique.SingleGenerator
)

func init() {
	siUkScheduler = unique.NewSingleGenerator(UkPreScheduler)
	siUkMcastSender = unique.NewSingleGenerator(UkPreMcastSender)
	siUkTsWriter = unique.NewSingleGenerator(UkPreTsWriter)
	siUkAnnexbDump = unique.NewSingleGenerator(UkPreAnnexbDump)
	siUkContext = unique.NewSingleGenerator(UkPreContext)
}
