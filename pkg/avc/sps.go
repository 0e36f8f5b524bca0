// Copyright 2026, Chef.  All rights reserved.
// https://github.com/q191201771/rtpreplay
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// SpsSummary 只解析分辨率相关的字段，用于日志
type SpsSummary struct {
	ProfileIdc uint8
	LevelIdc   uint8
	Width      uint32
	Height     uint32
}

// ParseSpsSummary
//
// ISO-14496-10.pdf
// 7.3.2.1.1 Sequence parameter set data syntax
//
// @param nalu 不包含起始码，包含1字节nalu header
func ParseSpsSummary(nalu []byte) (s SpsSummary, err error) {
	if len(nalu) < 4 || CalcNaluType(nalu) != NaluTypeSps {
		return s, nazaerrors.Wrap(ErrAvc)
	}

	br := nazabits.NewBitReader(RemoveEmulationPrevention(nalu[1:]))
	if s.ProfileIdc, err = br.ReadBits8(8); err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if _, err = br.ReadBits8(8); err != nil { // constraint_set flags + reserved_zero_2bits
		return s, nazaerrors.Wrap(err)
	}
	if s.LevelIdc, err = br.ReadBits8(8); err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if _, err = br.ReadGolomb(); err != nil { // seq_parameter_set_id
		return s, nazaerrors.Wrap(err)
	}

	var frameMbsOnlyFlag uint8
	var picWidthInMbsMinusOne, picHeightInMapUnitsMinusOne uint32
	var cropLeft, cropRight, cropTop, cropBottom uint32

	switch s.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128:
		chromaFormatIdc, err := br.ReadGolomb()
		if err != nil {
			return s, nazaerrors.Wrap(err)
		}
		if chromaFormatIdc == 3 {
			if _, err = br.ReadBits8(1); err != nil { // separate_colour_plane_flag
				return s, nazaerrors.Wrap(err)
			}
		}
		if _, err = br.ReadGolomb(); err != nil { // bit_depth_luma_minus8
			return s, nazaerrors.Wrap(err)
		}
		if _, err = br.ReadGolomb(); err != nil { // bit_depth_chroma_minus8
			return s, nazaerrors.Wrap(err)
		}
		if _, err = br.ReadBits8(1); err != nil { // qpprime_y_zero_transform_bypass_flag
			return s, nazaerrors.Wrap(err)
		}
		flag, err := br.ReadBits8(1)
		if err != nil {
			return s, nazaerrors.Wrap(err)
		}
		if flag == 1 {
			// TODO(chef): 解析scaling matrix
			return s, nazaerrors.Wrap(ErrAvc)
		}
	}

	if _, err = br.ReadGolomb(); err != nil { // log2_max_frame_num_minus4
		return s, nazaerrors.Wrap(err)
	}
	picOrderCntType, err := br.ReadGolomb()
	if err != nil {
		return s, nazaerrors.Wrap(err)
	}
	switch picOrderCntType {
	case 0:
		if _, err = br.ReadGolomb(); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return s, nazaerrors.Wrap(err)
		}
	case 2:
		// noop
	default:
		return s, nazaerrors.Wrap(ErrAvc)
	}

	if _, err = br.ReadGolomb(); err != nil { // max_num_ref_frames
		return s, nazaerrors.Wrap(err)
	}
	if _, err = br.ReadBits8(1); err != nil { // gaps_in_frame_num_value_allowed_flag
		return s, nazaerrors.Wrap(err)
	}
	if picWidthInMbsMinusOne, err = br.ReadGolomb(); err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if picHeightInMapUnitsMinusOne, err = br.ReadGolomb(); err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if frameMbsOnlyFlag, err = br.ReadBits8(1); err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if frameMbsOnlyFlag == 0 {
		if _, err = br.ReadBits8(1); err != nil { // mb_adaptive_frame_field_flag
			return s, nazaerrors.Wrap(err)
		}
	}
	if _, err = br.ReadBits8(1); err != nil { // direct_8x8_inference_flag
		return s, nazaerrors.Wrap(err)
	}
	croppingFlag, err := br.ReadBits8(1)
	if err != nil {
		return s, nazaerrors.Wrap(err)
	}
	if croppingFlag == 1 {
		if cropLeft, err = br.ReadGolomb(); err != nil {
			return s, nazaerrors.Wrap(err)
		}
		if cropRight, err = br.ReadGolomb(); err != nil {
			return s, nazaerrors.Wrap(err)
		}
		if cropTop, err = br.ReadGolomb(); err != nil {
			return s, nazaerrors.Wrap(err)
		}
		if cropBottom, err = br.ReadGolomb(); err != nil {
			return s, nazaerrors.Wrap(err)
		}
	}

	s.Width = (picWidthInMbsMinusOne+1)*16 - (cropLeft+cropRight)*2
	s.Height = (2-uint32(frameMbsOnlyFlag))*(picHeightInMapUnitsMinusOne+1)*16 - (cropTop+cropBottom)*2
	return s, nil
}

// RemoveEmulationPrevention 去掉 00 00 03 中的 03
func RemoveEmulationPrevention(b []byte) []byte {
	out := make([]byte, 0, len(b))
	zeros := 0
	for _, v := range b {
		if zeros >= 2 && v == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, v)
		if v == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
