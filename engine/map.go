/*
NAME
  map.go

DESCRIPTION
  map.go implements the channel remap algorithm: for each output frame
  and each output channel c, the map picks a source channel map[c] and
  copies its sample bytes across; a map entry at or beyond the source's
  channel count produces silence instead of copying out of bounds.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package engine

import "github.com/ausocean/vban/vban"

// Remap copies frames from src (srcCfg.NbChannels channels per frame,
// srcCfg.BitFmt's sample size) into dst (len(chanMap) channels per
// frame, same sample size), selecting source channel chanMap[c] for
// each destination channel c. A chanMap entry that names a channel
// past the source's channel count is written as silence. Remap copies
// as many whole frames as fit in both src and dst, and returns the
// number of bytes written to dst.
func Remap(src, dst []byte, srcCfg vban.StreamConfig, chanMap []int) int {
	sampleSize := srcCfg.BitFmt.SampleSize()
	srcChannels := srcCfg.NbChannels
	dstChannels := len(chanMap)
	if sampleSize == 0 || srcChannels == 0 || dstChannels == 0 {
		return 0
	}

	srcFrameSize := srcChannels * sampleSize
	dstFrameSize := dstChannels * sampleSize

	frames := len(src) / srcFrameSize
	if n := len(dst) / dstFrameSize; n < frames {
		frames = n
	}

	for f := 0; f < frames; f++ {
		srcFrame := src[f*srcFrameSize : (f+1)*srcFrameSize]
		dstFrame := dst[f*dstFrameSize : (f+1)*dstFrameSize]
		for c, m := range chanMap {
			out := dstFrame[c*sampleSize : (c+1)*sampleSize]
			if m < 0 || m >= srcChannels {
				for i := range out {
					out[i] = 0
				}
				continue
			}
			copy(out, srcFrame[m*sampleSize:(m+1)*sampleSize])
		}
	}

	return frames * dstFrameSize
}
