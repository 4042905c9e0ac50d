package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"
)

// The bridge protocol: each request is a 4-byte big-endian length followed by
// that many JPEG bytes; each reply is one JSON line {"hands":[...]}.

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type wireReply struct {
	Hands []wireHand `json:"hands"`
}

func writeFrame(w io.Writer, jpeg []byte) error {
	if uint64(len(jpeg)) > math.MaxUint32 {
		return fmt.Errorf("frame of %d bytes exceeds bridge limit", len(jpeg))
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(jpeg)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readHands reads one reply line. Hands with fewer than NumLandmarks points
// are dropped so callers see them as absent.
func readHands(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	var reply wireReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	hands := make([]HandLandmarks, 0, len(reply.Hands))
	for i, wh := range reply.Hands {
		h, err := HandFromPoints(wh.Points)
		if err != nil {
			log.WithError(err).WithField("hand", i).Debug("Dropping malformed hand")
			continue
		}
		h.Handedness = wh.Handedness
		h.Score = wh.Score
		hands = append(hands, h)
	}
	return hands, nil
}
