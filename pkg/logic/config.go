// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"os"

	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtpreplay/pkg/base"
	"github.com/q191201771/rtpreplay/pkg/grain"
)

type Config struct {
	ConfVersion string `json:"conf_version"`

	Source      string `json:"source"`
	AdapterAddr string `json:"adapter_addr"`

	// MsPerGrain 为0时从抓包推导
	MsPerGrain  int    `json:"ms_per_grain"`
	GrainPolicy string `json:"grain_policy"`
	ClockRate   int    `json:"clock_rate"`

	GroupAddr         string `json:"group_addr"`
	MulticastTtl      int    `json:"multicast_ttl"`
	MulticastLoopback bool   `json:"multicast_loopback"`
	SendBufferSize    int    `json:"send_buffer_size"`

	StatIntervalLoops int `json:"stat_interval_loops"`

	EsDumpConfig EsDumpConfig   `json:"es_dump"`
	PprofConfig  PprofConfig    `json:"pprof"`
	LogConfig    nazalog.Option `json:"log"`
}

type EsDumpConfig struct {
	Enable            bool   `json:"enable"`
	PayloadType       int    `json:"payload_type"`
	H264Filename      string `json:"h264_filename"`
	TsFilename        string `json:"ts_filename"`
	MaxSingleNaluSize int    `json:"max_single_nalu_size"`
}

type PprofConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"`
}

// LoadConf confFile为空时，所有配置项使用默认值，由命令行参数补充必填项
func LoadConf(confFile string) (*Config, error) {
	rawContent := []byte("{}")
	if confFile != "" {
		var err error
		if rawContent, err = os.ReadFile(confFile); err != nil {
			return nil, base.NewErrConfiguration("read conf file failed. file=%s, err=%+v", confFile, err)
		}
	}
	return LoadConfFromBytes(rawContent)
}

func LoadConfFromBytes(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, base.NewErrConfiguration("unmarshal conf failed. err=%+v", err)
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, base.NewErrConfiguration("parse conf failed. err=%+v", err)
	}

	if config.ConfVersion != "" && config.ConfVersion != base.ConfVersion {
		Log.Warnf("config version invalid. conf version of rtpreplay=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}

	// 配置不存在时，设置默认值
	if !j.Exist("grain_policy") {
		config.GrainPolicy = string(grain.PolicyExtensionSize)
	}
	if !j.Exist("clock_rate") {
		config.ClockRate = base.DefaultClockRate
	}
	if !j.Exist("group_addr") {
		config.GroupAddr = base.DefaultGroupAddr
	}
	if !j.Exist("multicast_ttl") {
		config.MulticastTtl = 16
	}
	if !j.Exist("send_buffer_size") {
		config.SendBufferSize = base.DefaultSendBufferSize
	}
	if !j.Exist("stat_interval_loops") {
		config.StatIntervalLoops = 100
	}
	if !j.Exist("es_dump.payload_type") {
		config.EsDumpConfig.PayloadType = base.RtpPacketTypeAvc
	}
	if !j.Exist("es_dump.max_single_nalu_size") {
		config.EsDumpConfig.MaxSingleNaluSize = 1500
	}
	if !j.Exist("pprof.addr") {
		config.PprofConfig.Addr = ":8084"
	}
	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelDebug
	}
	if !j.Exist("log.filename") {
		config.LogConfig.Filename = "./logs/rtpreplay.log"
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.LogConfig.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	return &config, nil
}

// Check 检查必填项和取值范围，命令行参数覆盖之后调用
func (c *Config) Check() error {
	if c.Source == "" {
		return base.NewErrConfiguration("source is required")
	}
	if c.AdapterAddr == "" {
		return base.NewErrConfiguration("adapter addr is required")
	}
	if c.MsPerGrain < 0 {
		return base.NewErrConfiguration("ms per grain must not be negative. value=%d", c.MsPerGrain)
	}
	if _, err := grain.ParsePolicy(c.GrainPolicy); err != nil {
		return err
	}
	if c.ClockRate <= 0 {
		return base.NewErrConfiguration("clock rate must be positive. value=%d", c.ClockRate)
	}
	if c.MulticastTtl < 0 || c.MulticastTtl > 255 {
		return base.NewErrConfiguration("multicast ttl out of range. value=%d", c.MulticastTtl)
	}
	if c.EsDumpConfig.Enable {
		if c.EsDumpConfig.H264Filename == "" && c.EsDumpConfig.TsFilename == "" {
			return base.NewErrConfiguration("es dump enabled but no output filename")
		}
		if c.EsDumpConfig.PayloadType < 0 || c.EsDumpConfig.PayloadType > 127 {
			return base.NewErrConfiguration("es dump payload type out of range. value=%d", c.EsDumpConfig.PayloadType)
		}
	}
	return nil
}
