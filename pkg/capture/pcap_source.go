// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package capture

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/rtpreplay/pkg/base"
)

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

type PcapSourceOption struct {
	// DstPort 只读取目的端口为该值的udp包，为0时不过滤
	DstPort uint16
}

type ModPcapSourceOption func(option *PcapSourceOption)

// PcapSource 读取pcap或pcapng文件，解析链路层、网络层、udp层，取出udp payload
type PcapSource struct {
	filename string
	option   PcapSourceOption
}

type packetDataReader interface {
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
	LinkType() layers.LinkType
}

func NewPcapSource(filename string, modOptions ...ModPcapSourceOption) *PcapSource {
	var option PcapSourceOption
	for _, fn := range modOptions {
		fn(&option)
	}
	return &PcapSource{
		filename: filename,
		option:   option,
	}
}

func (s *PcapSource) Name() string {
	return s.filename
}

func (s *PcapSource) Visit(onPayload OnPayload) error {
	fp, err := os.Open(s.filename)
	if err != nil {
		return base.NewErrCaptureRead(s.filename, err)
	}
	defer fp.Close()

	br := bufio.NewReader(fp)
	r, err := newPacketDataReader(br)
	if err != nil {
		return base.NewErrCaptureRead(s.filename, err)
	}

	var frames, skipped int
	skipDump := base.NewLogDump(Log, 8)
	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return base.NewErrCaptureRead(s.filename, err)
		}
		frames++

		pkt := gopacket.NewPacket(data, r.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udpLayer := pkt.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			skipped++
			if skipDump.ShouldDump() {
				skipDump.Outf("[%s] skip non-udp frame. index=%d, layers=%s", s.filename, frames-1, layerNames(pkt))
			}
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if s.option.DstPort != 0 && uint16(udp.DstPort) != s.option.DstPort {
			skipped++
			continue
		}

		if err = onPayload(udp.Payload); err != nil {
			return nazaerrors.Wrap(err)
		}
	}

	if skipped > 0 {
		Log.Debugf("[%s] skip non-matching frames. frames=%d, skipped=%d", s.filename, frames, skipped)
	}
	return nil
}

func newPacketDataReader(br *bufio.Reader) (packetDataReader, error) {
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(magic, pcapngMagic) {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}

func layerNames(pkt gopacket.Packet) string {
	var names []string
	for _, l := range pkt.Layers() {
		names = append(names, l.LayerType().String())
	}
	return strings.Join(names, "/")
}
