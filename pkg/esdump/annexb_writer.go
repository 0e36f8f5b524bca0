// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package esdump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/q191201771/rtpreplay/pkg/base"
)

// AnnexbWriter 所有nalu按顺序追加写入.h264文件
type AnnexbWriter struct {
	uniqueKey string
	filename  string
	fp        *os.File
	err       error
	written   int
}

func NewAnnexbWriter(filename string) (*AnnexbWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("%w. mkdir failed. err=%+v", base.ErrEsDump, err)
	}
	fp, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("%w. create file failed. err=%+v", base.ErrEsDump, err)
	}
	uk := base.GenUkAnnexbDump()
	Log.Infof("[%s] lifecycle new annexb writer. filename=%s", uk, filename)
	return &AnnexbWriter{
		uniqueKey: uk,
		filename:  filename,
		fp:        fp,
	}, nil
}

func (w *AnnexbWriter) OnNalu(nalu []byte, timestamp uint32) {
	if w.err != nil {
		return
	}
	if _, err := w.fp.Write(nalu); err != nil {
		w.err = fmt.Errorf("%w. write failed. err=%+v", base.ErrEsDump, err)
		Log.Errorf("[%s] %+v", w.uniqueKey, w.err)
		return
	}
	w.written += len(nalu)
}

func (w *AnnexbWriter) Close() error {
	if err := w.fp.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("%w. close failed. err=%+v", base.ErrEsDump, err)
	}
	Log.Infof("[%s] lifecycle dispose annexb writer. filename=%s, written=%d", w.uniqueKey, w.filename, w.written)
	return w.err
}
