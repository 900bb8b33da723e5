package netopt

import (
	"bytes"
	"fmt"
)

// Scheme selects a compression strategy (spec.md §4.2).
type Scheme string

const (
	SchemeFast Scheme = "fast" // fixed-dictionary replacement
	SchemeBest Scheme = "best" // two-pass dictionary + run-length pattern scheme
)

// dictionary is the fixed substitution table shared by both schemes.
// Each entry maps a common substring to a single byte from 0x80 up;
// 0x9F is the run-length marker. Compress sends any payload that
// contains a byte in 0x80-0xFF raw, so tokens never collide with
// plaintext bytes.
var dictionary = []string{
	"DNS_QUERY", "DNS_RESPONSE", "DNS_REGISTER", "DNS_UPDATE",
	"DISPUTE_RAISED", "VOTE_REQUEST", "VOTE_RESPONSE", "DISPUTE_RESOLVED",
	"comp", ".rednet", "http://", "https://", "claimant", "claimed",
}

const dictionaryBase = 0x80

// Envelope is the wrapper format: {compressed, data, original}
// (spec.md §4.2). It is always safe to round-trip even when Compressed
// is false (Data holds the raw bytes and Original is unset).
type Envelope struct {
	Compressed bool
	Data       []byte
	Original   int // original byte length, populated when Compressed
}

// Compress applies scheme to data, falling back to raw (uncompressed)
// output if compression would not shrink the payload or if data is
// below compressionThreshold (spec.md §4.2: "payloads larger than
// compressionThreshold... compression errors fall back to raw send").
func Compress(data []byte, threshold int, scheme Scheme) Envelope {
	if len(data) < threshold {
		return Envelope{Compressed: false, Data: data}
	}
	for _, c := range data {
		if c >= dictionaryBase {
			return Envelope{Compressed: false, Data: data}
		}
	}

	var out []byte
	switch scheme {
	case SchemeBest:
		out = bestCompress(data)
	default:
		out = fastCompress(data)
	}

	if out == nil || len(out) >= len(data) {
		return Envelope{Compressed: false, Data: data}
	}
	return Envelope{Compressed: true, Data: out, Original: len(data)}
}

// Decompress reverses Compress, always recovering the original bytes
// exactly: decompress(compress(x)) == x for all payloads (spec.md §8).
func Decompress(env Envelope) ([]byte, error) {
	if !env.Compressed {
		return env.Data, nil
	}
	stage1, err := runLengthDecode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("netopt: decompress: %w", err)
	}
	out, err := dictionaryDecode(stage1)
	if err != nil {
		return nil, fmt.Errorf("netopt: decompress: %w", err)
	}
	if len(out) != env.Original {
		return nil, fmt.Errorf("netopt: decompressed length %d != expected %d", len(out), env.Original)
	}
	return out, nil
}

// fastCompress replaces every dictionary entry with its single-byte
// token via one linear scan.
func fastCompress(data []byte) []byte {
	return dictionaryEncode(data)
}

// bestCompress runs the dictionary pass, then a second run-length pass
// over the result collapsing repeated-byte runs of length >= 4 into a
// 3-byte token {0x9F, byte, count}.
func bestCompress(data []byte) []byte {
	stage1 := dictionaryEncode(data)
	return runLengthEncode(stage1)
}

func dictionaryEncode(data []byte) []byte {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		matched := false
		for idx, term := range dictionary {
			tb := []byte(term)
			if len(tb) > 0 && bytes.HasPrefix(data[i:], tb) {
				buf.WriteByte(byte(dictionaryBase + idx))
				i += len(tb)
				matched = true
				break
			}
		}
		if !matched {
			buf.WriteByte(data[i])
			i++
		}
	}
	return buf.Bytes()
}

func dictionaryDecode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		b := data[i]
		if int(b) >= dictionaryBase && int(b)-dictionaryBase < len(dictionary) {
			buf.WriteString(dictionary[int(b)-dictionaryBase])
			i++
			continue
		}
		buf.WriteByte(b)
		i++
	}
	return buf.Bytes(), nil
}

const runLengthMarker = 0x9F

func runLengthEncode(data []byte) []byte {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		j := i + 1
		for j < len(data) && data[j] == data[i] && j-i < 255 {
			j++
		}
		runLen := j - i
		if runLen >= 4 && data[i] != runLengthMarker {
			buf.WriteByte(runLengthMarker)
			buf.WriteByte(data[i])
			buf.WriteByte(byte(runLen))
			i = j
			continue
		}
		// Escape any literal occurrence of the marker byte itself.
		if data[i] == runLengthMarker {
			buf.WriteByte(runLengthMarker)
			buf.WriteByte(runLengthMarker)
			buf.WriteByte(1)
			i++
			continue
		}
		buf.WriteByte(data[i])
		i++
	}
	return buf.Bytes()
}

func runLengthDecode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		if data[i] == runLengthMarker {
			if i+2 >= len(data) {
				return nil, fmt.Errorf("truncated run-length token at %d", i)
			}
			b, count := data[i+1], data[i+2]
			for k := byte(0); k < count; k++ {
				buf.WriteByte(b)
			}
			i += 3
			continue
		}
		buf.WriteByte(data[i])
		i++
	}
	return buf.Bytes(), nil
}
