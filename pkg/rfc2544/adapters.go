package rfc2544

import "github.com/netgenlab/trafficgen/pkg/scheduler"

// SenderBurstTrial adapts a raw scheduler.Sender to BurstTrial by
// building burstN copies of a fixed-size filler frame and submitting
// them as a single batch, counting how many the sender accepts.
func SenderBurstTrial(send scheduler.Sender, fill byte) BurstTrial {
	return func(_ string, frameSize, burstN int) (int, error) {
		if frameSize < 1 {
			frameSize = 1
		}
		batch := make([][]byte, burstN)
		for i := range batch {
			frame := make([]byte, frameSize)
			for j := range frame {
				frame[j] = fill
			}
			batch[i] = frame
		}
		return send.SendBatch(batch), nil
	}
}
