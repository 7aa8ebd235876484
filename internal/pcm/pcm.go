// Package pcm frames 16-bit PCM audio into Q15 resonator frames.
//
// Input is either a RIFF/WAVE file (16-bit mono, decoded with beep) or raw
// little-endian PCM16. The final partial frame of a stream is zero-padded.
package pcm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// FrameBytes is the size of one raw PCM16 frame.
const FrameBytes = resonator.FrameSize * 2

const defaultSampleRate = 16000

var (
	// ErrFormat is returned for WAV files that are not 16-bit mono.
	ErrFormat = errors.New("pcm: unsupported format")

	// ErrPayload is returned by DecodeFrame for a payload that is not
	// exactly FrameBytes long.
	ErrPayload = errors.New("pcm: payload size mismatch")
)

// Format describes the input stream.
type Format struct {
	WAV        bool
	SampleRate int
	Channels   int
	BitDepth   int
}

type config struct {
	rawSampleRate int
}

// Option configures a Reader.
type Option func(*config)

// WithRawSampleRate sets the sample rate reported for raw input.
func WithRawSampleRate(hz int) Option {
	return func(cfg *config) {
		if hz > 0 {
			cfg.rawSampleRate = hz
		}
	}
}

type source interface {
	// read fills dst and returns the number of samples stored; 0 at end
	// of stream.
	read(dst []int16) (int, error)
	close() error
}

// Reader yields consecutive frames from a PCM stream.
type Reader struct {
	src    source
	format Format
	frames uint64
	done   bool
}

// NewReader inspects r and returns a frame reader for it.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := config{rawSampleRate: defaultSampleRate}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	br := bufio.NewReader(r)

	head, err := br.Peek(12)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pcm: reading header: %w", err)
	}

	if len(head) == 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")) {
		return newWAVReader(br)
	}

	return &Reader{
		src: &rawSource{r: br},
		format: Format{
			SampleRate: cfg.rawSampleRate,
			Channels:   1,
			BitDepth:   16,
		},
	}, nil
}

func newWAVReader(r io.Reader) (*Reader, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pcm: %w", err)
	}

	if format.NumChannels != 1 || format.Precision != 2 {
		_ = stream.Close()

		return nil, fmt.Errorf("%w: %d channel(s), %d-bit (want mono 16-bit)",
			ErrFormat, format.NumChannels, format.Precision*8)
	}

	return &Reader{
		src: &wavSource{stream: stream, buf: make([][2]float64, resonator.FrameSize)},
		format: Format{
			WAV:        true,
			SampleRate: int(format.SampleRate),
			Channels:   format.NumChannels,
			BitDepth:   format.Precision * 8,
		},
	}, nil
}

// Format returns the detected stream format.
func (r *Reader) Format() Format {
	return r.format
}

// Frames returns the number of frames read so far.
func (r *Reader) Frames() uint64 {
	return r.frames
}

// ReadFrame fills f with the next FrameSize samples. A final partial frame
// is zero-padded; the call after it returns io.EOF.
func (r *Reader) ReadFrame(f *resonator.Frame) error {
	if r.done {
		return io.EOF
	}

	n, err := r.src.read(f[:])
	if err != nil {
		return err
	}

	if n == 0 {
		r.done = true
		return io.EOF
	}

	if n < resonator.FrameSize {
		clear(f[n:])
		r.done = true
	}

	r.frames++

	return nil
}

// Close releases the underlying decoder.
func (r *Reader) Close() error {
	return r.src.close()
}

// DecodeFrame converts one little-endian PCM16 payload of exactly
// FrameBytes into f.
func DecodeFrame(f *resonator.Frame, payload []byte) error {
	if len(payload) != FrameBytes {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayload, len(payload), FrameBytes)
	}

	for i := range f {
		f[i] = int16(binary.LittleEndian.Uint16(payload[2*i:]))
	}

	return nil
}

// EncodeFrame writes samples as little-endian PCM16 into dst, which must
// hold 2*len(samples) bytes, and returns the written slice.
func EncodeFrame(dst []byte, samples []int16) []byte {
	dst = dst[:2*len(samples)]
	for i, v := range samples {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}

	return dst
}

type rawSource struct {
	r   io.Reader
	buf [FrameBytes]byte
}

func (s *rawSource) read(dst []int16) (int, error) {
	want := min(len(dst)*2, FrameBytes)

	n, err := io.ReadFull(s.r, s.buf[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("pcm: %w", err)
	}

	// A trailing odd byte is not a whole sample.
	samples := n / 2
	for i := range samples {
		dst[i] = int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
	}

	return samples, nil
}

func (s *rawSource) close() error {
	return nil
}

type wavSource struct {
	stream beep.StreamSeekCloser
	buf    [][2]float64
}

func (s *wavSource) read(dst []int16) (int, error) {
	want := min(len(dst), len(s.buf))
	total := 0

	for total < want {
		n, ok := s.stream.Stream(s.buf[total:want])
		total += n

		if !ok || n == 0 {
			break
		}
	}

	if err := s.stream.Err(); err != nil {
		return 0, fmt.Errorf("pcm: %w", err)
	}

	for i := range total {
		dst[i] = toQ15(s.buf[i][0])
	}

	return total, nil
}

func (s *wavSource) close() error {
	return s.stream.Close()
}

// wavScale undoes the 16-bit decoder scaling, which divides by 2^16-1
// and so yields samples in [-0.5, 0.5].
const wavScale = 1<<16 - 1

// toQ15 maps a decoded 16-bit sample back to PCM16.
func toQ15(v float64) int16 {
	return fixed.Sat16Wide(int64(math.Round(v * wavScale)))
}
