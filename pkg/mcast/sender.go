// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mcast 从指定网卡向组播地址发送udp包
package mcast

import (
	"fmt"
	"net"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/q191201771/rtpreplay/pkg/base"
	"golang.org/x/net/ipv4"
)

var Log = nazalog.GetGlobalLogger()

type SenderOption struct {
	// AdapterAddr 本地网卡的ip地址，绑定该地址的随机端口发送，并作为组播的出口网卡
	AdapterAddr string

	// GroupAddr 目的地址，格式为ip:port。不是组播地址时按普通udp单播发送
	GroupAddr string

	MulticastTtl      int
	MulticastLoopback bool

	// SendBufferSize 单位字节，为0时使用系统默认值
	SendBufferSize int
}

var defaultSenderOption = SenderOption{
	GroupAddr:         base.DefaultGroupAddr,
	MulticastTtl:      16,
	MulticastLoopback: false,
	SendBufferSize:    base.DefaultSendBufferSize,
}

type ModSenderOption func(option *SenderOption)

type SenderStat struct {
	Packets uint64
	Bytes   uint64
}

type Sender struct {
	uniqueKey string
	option    SenderOption
	conn      *nazanet.UdpConnection
	laddr     net.Addr
	stat      SenderStat
}

func NewSender(modOptions ...ModSenderOption) (*Sender, error) {
	option := defaultSenderOption
	for _, fn := range modOptions {
		fn(&option)
	}
	uk := base.GenUkMcastSender()

	raddr, err := net.ResolveUDPAddr("udp4", option.GroupAddr)
	if err != nil {
		return nil, base.NewErrConfiguration("invalid group addr. addr=%s, err=%+v", option.GroupAddr, err)
	}
	laddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(option.AdapterAddr, "0"))
	if err != nil {
		return nil, base.NewErrConfiguration("invalid adapter addr. addr=%s, err=%+v", option.AdapterAddr, err)
	}

	udpConn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}
	if option.SendBufferSize > 0 {
		if err = udpConn.SetWriteBuffer(option.SendBufferSize); err != nil {
			Log.Warnf("[%s] set write buffer failed. size=%d, err=%+v", uk, option.SendBufferSize, err)
		}
	}

	if raddr.IP.IsMulticast() {
		if err = setMulticastOption(udpConn, laddr.IP, option); err != nil {
			_ = udpConn.Close()
			return nil, err
		}
	}

	conn, err := nazanet.NewUdpConnection(func(o *nazanet.UdpConnectionOption) {
		o.Conn = udpConn
		o.RAddr = option.GroupAddr
	})
	if err != nil {
		_ = udpConn.Close()
		return nil, nazaerrors.Wrap(err)
	}

	s := &Sender{
		uniqueKey: uk,
		option:    option,
		conn:      conn,
		laddr:     udpConn.LocalAddr(),
	}
	Log.Infof("[%s] lifecycle new mcast sender. local=%s, group=%s, ttl=%d, loopback=%t, sendBuffer=%d",
		uk, s.laddr.String(), option.GroupAddr, option.MulticastTtl, option.MulticastLoopback, option.SendBufferSize)
	return s, nil
}

func (s *Sender) Write(b []byte) error {
	if err := s.conn.Write(b); err != nil {
		return err
	}
	s.stat.Packets++
	s.stat.Bytes += uint64(len(b))
	return nil
}

func (s *Sender) LocalAddr() net.Addr {
	return s.laddr
}

func (s *Sender) Stat() SenderStat {
	return s.stat
}

func (s *Sender) UniqueKey() string {
	return s.uniqueKey
}

func (s *Sender) Dispose() error {
	Log.Infof("[%s] lifecycle dispose mcast sender. packets=%d, bytes=%d", s.uniqueKey, s.stat.Packets, s.stat.Bytes)
	return s.conn.Dispose()
}

// ---------------------------------------------------------------------------------------------------------------------

func setMulticastOption(conn *net.UDPConn, adapterIp net.IP, option SenderOption) error {
	pc := ipv4.NewPacketConn(conn)

	if adapterIp != nil && !adapterIp.IsUnspecified() {
		ifi, err := interfaceByIp(adapterIp)
		if err != nil {
			return err
		}
		if err = pc.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("set multicast interface failed. interface=%s, err=%w", ifi.Name, err)
		}
	}
	if err := pc.SetMulticastTTL(option.MulticastTtl); err != nil {
		return fmt.Errorf("set multicast ttl failed. ttl=%d, err=%w", option.MulticastTtl, err)
	}
	if err := pc.SetMulticastLoopback(option.MulticastLoopback); err != nil {
		return fmt.Errorf("set multicast loopback failed. err=%w", err)
	}
	return nil
}

// interfaceByIp 找到ip地址所属的网卡
func interfaceByIp(ip net.IP) (*net.Interface, error) {
	ifis, err := net.Interfaces()
	if err != nil {
		return nil, nazaerrors.Wrap(err)
	}
	for i := range ifis {
		addrs, err := ifis[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return &ifis[i], nil
			}
		}
	}
	return nil, base.NewErrConfiguration("no network interface has adapter addr. addr=%s", ip.String())
}
