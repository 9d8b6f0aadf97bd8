package podcast

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavData is decoded 16-bit PCM audio from a RIFF/WAVE container, which is
// what LINEAR16 synthesis returns.
type wavData struct {
	sampleRate  uint32
	numChannels uint16
	samples     []int16
}

const silenceDuration = 500 // milliseconds between segments

func parseWAV(blob []byte) (*wavData, error) {
	if len(blob) < 44 {
		return nil, fmt.Errorf("wav blob too short: %d bytes", len(blob))
	}
	if !bytes.Equal(blob[0:4], []byte("RIFF")) || !bytes.Equal(blob[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("not a RIFF/WAVE blob")
	}

	var (
		sampleRate    uint32
		numChannels   uint16
		bitsPerSample uint16
		data          []byte
	)

	// Walk the chunk list; fmt and data can appear after other chunks.
	offset := 12
	for offset+8 <= len(blob) {
		chunkID := blob[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(blob[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(blob) {
			chunkSize = len(blob) - body
		}

		switch string(chunkID) {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too short")
			}
			numChannels = binary.LittleEndian.Uint16(blob[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(blob[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(blob[body+14 : body+16])
		case "data":
			data = blob[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 || data == nil {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}

	return &wavData{
		sampleRate:  sampleRate,
		numChannels: numChannels,
		samples:     samples,
	}, nil
}

func encodeWAV(w *wavData) []byte {
	dataSize := len(w.samples) * 2
	byteRate := w.sampleRate * uint32(w.numChannels) * 2
	blockAlign := w.numChannels * 2

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, w.numChannels)
	binary.Write(buf, binary.LittleEndian, w.sampleRate)
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(16)) // bits per sample
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range w.samples {
		binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// concatWAV joins segment blobs in slice order with a fixed silence gap
// between consecutive segments. Nil entries (failed synthesis) are skipped.
func concatWAV(blobs [][]byte) ([]byte, error) {
	var (
		out   *wavData
		first = true
	)

	for _, blob := range blobs {
		if blob == nil {
			continue
		}
		w, err := parseWAV(blob)
		if err != nil {
			return nil, fmt.Errorf("parsing segment: %w", err)
		}

		if first {
			out = &wavData{
				sampleRate:  w.sampleRate,
				numChannels: w.numChannels,
			}
			first = false
		} else {
			if w.sampleRate != out.sampleRate || w.numChannels != out.numChannels {
				return nil, fmt.Errorf("segment format mismatch: %dHz/%dch vs %dHz/%dch",
					w.sampleRate, w.numChannels, out.sampleRate, out.numChannels)
			}
			gap := int(out.sampleRate) * silenceDuration / 1000 * int(out.numChannels)
			out.samples = append(out.samples, make([]int16, gap)...)
		}

		out.samples = append(out.samples, w.samples...)
	}

	if out == nil {
		return nil, fmt.Errorf("no segments to concatenate")
	}

	return encodeWAV(out), nil
}

// ambientGain keeps the background bed well under the speech level.
const ambientGain = 0.15

// mixAmbient overlays a quiet background track, looping it to cover the full
// speech duration. Format mismatches are an error so the caller can skip the
// overlay.
func mixAmbient(speech, ambient []byte) ([]byte, error) {
	s, err := parseWAV(speech)
	if err != nil {
		return nil, fmt.Errorf("parsing speech: %w", err)
	}
	a, err := parseWAV(ambient)
	if err != nil {
		return nil, fmt.Errorf("parsing ambient: %w", err)
	}
	if a.sampleRate != s.sampleRate || a.numChannels != s.numChannels {
		return nil, fmt.Errorf("ambient format mismatch")
	}
	if len(a.samples) == 0 {
		return nil, fmt.Errorf("ambient track is empty")
	}

	mixed := make([]int16, len(s.samples))
	for i, sample := range s.samples {
		bg := float64(a.samples[i%len(a.samples)]) * ambientGain
		v := float64(sample) + bg
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		mixed[i] = int16(v)
	}

	return encodeWAV(&wavData{
		sampleRate:  s.sampleRate,
		numChannels: s.numChannels,
		samples:     mixed,
	}), nil
}

// rawConcat is the last-resort degradation path: byte-level concatenation of
// whatever segment blobs exist. Players tolerate it poorly but it is never
// unavailable.
func rawConcat(blobs [][]byte) []byte {
	var out []byte
	for _, blob := range blobs {
		out = append(out, blob...)
	}
	return out
}
