// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package capture_test

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/capture"
	"github.com/q191201771/rtpreplay/pkg/grain"
	"github.com/q191201771/rtpreplay/pkg/rtprtcp"
)

func makeRtp(seq uint16, ts uint32, mark bool) []byte {
	unit := rtprtcp.RtpUnit{
		Version:     rtprtcp.DefaultRtpVersion,
		Mark:        mark,
		PayloadType: base.RtpPacketTypeAvc,
		Seq:         seq,
		Timestamp:   ts,
		Ssrc:        0x11223344,
		Payload:     []byte{0x41, byte(seq), 0xAA, 0xBB},
	}
	return unit.Pack()
}

func scenarioPayloads() [][]byte {
	return [][]byte{
		makeRtp(100, 1000, false),
		makeRtp(101, 1000, true),
		makeRtp(102, 2000, false),
		makeRtp(103, 2000, true),
		makeRtp(104, 3000, false),
	}
}

func serializeUdpFrame(t *testing.T, dstPort uint16, payload []byte) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x01, 0x00, 0x5e, 0x00, 0x07, 0x01},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      16,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(232, 0, 7, 1),
	}
	udp := &layers.UDP{
		SrcPort: 40000,
		DstPort: layers.UDPPort(dstPort),
	}
	assert.Equal(t, nil, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload))
	assert.Equal(t, nil, err)
	return buf.Bytes()
}

func serializeTcpFrame(t *testing.T) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xaa},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(192, 168, 1, 11),
	}
	tcp := &layers.TCP{
		SrcPort: 50000,
		DstPort: 554,
		Seq:     1,
		SYN:     true,
		Window:  1024,
	}
	assert.Equal(t, nil, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp)
	assert.Equal(t, nil, err)
	return buf.Bytes()
}

func writePcap(t *testing.T, filename string, frames [][]byte) {
	fp, err := os.Create(filename)
	assert.Equal(t, nil, err)
	defer fp.Close()

	w := pcapgo.NewWriter(fp)
	assert.Equal(t, nil, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	now := time.Now()
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     now.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		assert.Equal(t, nil, w.WritePacket(ci, frame))
	}
}

func writePcapng(t *testing.T, filename string, frames [][]byte) {
	fp, err := os.Create(filename)
	assert.Equal(t, nil, err)
	defer fp.Close()

	w, err := pcapgo.NewNgWriter(fp, layers.LinkTypeEthernet)
	assert.Equal(t, nil, err)
	now := time.Now()
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:      now.Add(time.Duration(i) * time.Millisecond),
			CaptureLength:  len(frame),
			Length:         len(frame),
			InterfaceIndex: 0,
		}
		assert.Equal(t, nil, w.WritePacket(ci, frame))
	}
	assert.Equal(t, nil, w.Flush())
}

func collect(t *testing.T, src capture.ISource) [][]byte {
	var ret [][]byte
	err := src.Visit(func(payload []byte) error {
		b := make([]byte, len(payload))
		copy(b, payload)
		ret = append(ret, b)
		return nil
	})
	assert.Equal(t, nil, err)
	return ret
}

func TestPcapSource(t *testing.T) {
	dir := t.TempDir()
	payloads := scenarioPayloads()

	var frames [][]byte
	frames = append(frames, serializeTcpFrame(t))
	for i, p := range payloads {
		frames = append(frames, serializeUdpFrame(t, 5000, p))
		if i == 2 {
			frames = append(frames, serializeUdpFrame(t, 6000, []byte{0x80, 0x60}))
		}
	}

	pcapFilename := filepath.Join(dir, "in.pcap")
	writePcap(t, pcapFilename, frames)
	pcapngFilename := filepath.Join(dir, "in.pcapng")
	writePcapng(t, pcapngFilename, frames)

	for _, filename := range []string{pcapFilename, pcapngFilename} {
		// 非udp包被跳过，其他端口的udp包保留
		got := collect(t, capture.OpenSource(filename))
		assert.Equal(t, 6, len(got))

		src := capture.NewPcapSource(filename, func(option *capture.PcapSourceOption) {
			option.DstPort = 5000
		})
		got = collect(t, src)
		assert.Equal(t, len(payloads), len(got))
		for i := range payloads {
			assert.Equal(t, payloads[i], got[i])
		}

		// 可以重复遍历
		got = collect(t, src)
		assert.Equal(t, len(payloads), len(got))
	}
}

func TestPcapSourceNotExist(t *testing.T) {
	src := capture.NewPcapSource(filepath.Join(t.TempDir(), "not_exist.pcap"))
	err := src.Visit(func(payload []byte) error { return nil })
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))

	_, err = capture.BuildPayloadStore(src, nil)
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))
}

func TestDumpFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "sub", "in.laldump")
	payloads := scenarioPayloads()

	df := capture.NewDumpFile()
	assert.Equal(t, nil, df.OpenToWrite(filename))
	for _, p := range payloads {
		assert.Equal(t, nil, df.Write(p))
	}
	assert.Equal(t, nil, df.Close())

	rd := capture.NewDumpFile()
	assert.Equal(t, nil, rd.OpenToRead(filename))
	m, err := rd.ReadOneMessage()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint32(1), m.Ver)
	assert.Equal(t, uint32(len(payloads[0])), m.Len)
	assert.Equal(t, payloads[0], m.Body)
	assert.Equal(t, true, len(m.DebugString()) > 0)
	assert.Equal(t, nil, rd.Close())

	got := collect(t, capture.OpenSource(filename))
	assert.Equal(t, len(payloads), len(got))
	for i := range payloads {
		assert.Equal(t, payloads[i], got[i])
	}
}

func TestDumpFileTruncated(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "in.dump")
	df := capture.NewDumpFile()
	assert.Equal(t, nil, df.OpenToWrite(filename))
	assert.Equal(t, nil, df.Write(makeRtp(1, 1, false)))
	assert.Equal(t, nil, df.Close())

	fi, err := os.Stat(filename)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, os.Truncate(filename, fi.Size()-2))

	err = capture.NewDumpFileSource(filename).Visit(func(payload []byte) error { return nil })
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))
}

func TestBuildPayloadStore(t *testing.T) {
	payloads := scenarioPayloads()
	detector := &grain.MarkerDetector{}

	filename := filepath.Join(t.TempDir(), "in.laldump")
	df := capture.NewDumpFile()
	assert.Equal(t, nil, df.OpenToWrite(filename))
	for _, p := range payloads {
		assert.Equal(t, nil, df.Write(p))
	}
	assert.Equal(t, nil, df.Close())

	store, err := capture.BuildPayloadStore(capture.OpenSource(filename), detector.Feed)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(payloads), store.Len())
	for i := range payloads {
		assert.Equal(t, payloads[i], store.At(i))
	}
	assert.Equal(t, uint32(1000), store.FirstTimestamp())
	assert.Equal(t, uint32(3000), store.LastTimestamp())
	assert.Equal(t, len(payloads)*len(payloads[0]), store.TotalBytes())
	assert.Equal(t, 3, detector.GrainCount())
}

func TestBuildPayloadStoreEmpty(t *testing.T) {
	_, err := capture.NewPayloadStore(nil)
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))

	filename := filepath.Join(t.TempDir(), "empty.pcap")
	writePcap(t, filename, [][]byte{serializeTcpFrame(t)})
	_, err = capture.BuildPayloadStore(capture.OpenSource(filename), nil)
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))
}

func TestBuildPayloadStoreMalformed(t *testing.T) {
	payloads := scenarioPayloads()
	payloads = append(payloads, []byte{0x80, 0x60, 0x00})
	_, err := capture.NewPayloadStore(payloads)
	assert.Equal(t, true, errors.Is(err, base.ErrMalformedPacket))
}

// growingSource 每次遍历都多一个包，模拟两遍之间文件被追加
type growingSource struct {
	payloads [][]byte
	n        int
}

func (g *growingSource) Name() string { return "growing" }

func (g *growingSource) Visit(onPayload capture.OnPayload) error {
	g.n++
	for i := 0; i < g.n && i < len(g.payloads); i++ {
		if err := onPayload(g.payloads[i]); err != nil {
			return err
		}
	}
	return nil
}

func TestBuildPayloadStoreMismatch(t *testing.T) {
	_, err := capture.BuildPayloadStore(&growingSource{payloads: scenarioPayloads()}, nil)
	assert.Equal(t, true, errors.Is(err, base.ErrCaptureRead))
}
