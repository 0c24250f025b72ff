package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// frameBytes is one stereo frame of 32-bit float samples.
const frameBytes = 2 * 4

// resampleQuality is passed to beep.Resample.
const resampleQuality = 4

// pcmStream adapts a beep stream to the interleaved float32 byte stream the
// output device consumes. It is read from the device goroutine and seeked
// from engine calls, so every access is locked.
type pcmStream struct {
	mu     sync.Mutex
	src    beep.StreamSeekCloser
	format beep.Format
	rate   beep.SampleRate
	out    beep.Streamer
	loop   bool
	ended  bool
	buf    [][2]float64
}

func newPCMStream(src beep.StreamSeekCloser, format beep.Format, rate beep.SampleRate) *pcmStream {
	p := &pcmStream{
		src:    src,
		format: format,
		rate:   rate,
	}
	p.resetOutput()
	return p
}

// resetOutput rebuilds the resampler so no samples from before a seek leak
// through.
func (p *pcmStream) resetOutput() {
	if p.format.SampleRate == p.rate {
		p.out = p.src
		return
	}
	p.out = beep.Resample(resampleQuality, p.format.SampleRate, p.rate, p.src)
}

func (p *pcmStream) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames := len(b) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if p.ended {
		return 0, io.EOF
	}
	if cap(p.buf) < frames {
		p.buf = make([][2]float64, frames)
	}
	samples := p.buf[:frames]

	n := 0
	for n < frames {
		k, ok := p.out.Stream(samples[n:])
		n += k
		if ok && k > 0 {
			continue
		}
		if p.loop && p.src.Len() > 0 {
			if err := p.src.Seek(0); err == nil {
				p.resetOutput()
				continue
			}
		}
		p.ended = true
		break
	}

	for i, s := range samples[:n] {
		binary.LittleEndian.PutUint32(b[i*frameBytes:], math.Float32bits(clampSample(s[0])))
		binary.LittleEndian.PutUint32(b[i*frameBytes+4:], math.Float32bits(clampSample(s[1])))
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n * frameBytes, nil
}

// Seek implements io.Seeker in device bytes. Only io.SeekStart and a zero
// io.SeekCurrent are supported.
func (p *pcmStream) Seek(offset int64, whence int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		if offset == 0 {
			return int64(p.rate.N(p.positionLocked())) * frameBytes, nil
		}
		return 0, errors.New("pcm stream: relative seek not supported")
	default:
		return 0, errors.New("pcm stream: unsupported whence")
	}
	if offset < 0 {
		return 0, errors.New("pcm stream: negative position")
	}

	d := p.rate.D(int(offset / frameBytes))
	pos := p.format.SampleRate.N(d)
	if pos > p.src.Len() {
		pos = p.src.Len()
	}
	if err := p.src.Seek(pos); err != nil {
		return 0, err
	}
	p.resetOutput()
	p.ended = false
	return offset, nil
}

// byteOffset returns the device byte offset for d.
func (p *pcmStream) byteOffset(d time.Duration) int64 {
	return int64(p.rate.N(d)) * frameBytes
}

func (p *pcmStream) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

// Ended reports whether the source ran out without looping.
func (p *pcmStream) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

// Position is the source cursor, ahead of what has been heard by whatever
// the device has buffered.
func (p *pcmStream) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *pcmStream) positionLocked() time.Duration {
	return p.format.SampleRate.D(p.src.Position())
}

func (p *pcmStream) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format.SampleRate.D(p.src.Len())
}

func (p *pcmStream) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src.Close()
}

func clampSample(v float64) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return float32(v)
	}
}
