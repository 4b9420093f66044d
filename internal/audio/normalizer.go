package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/orcaman/writerseeker"
)

// MIMEType is the media type of every normalized recording.
const MIMEType = "audio/wav"

// DefaultMaxDuration is the crop limit used when none is configured.
const DefaultMaxDuration = 60 * time.Second

const outputBitDepth = 16

// Normalized is a recording in canonical form.
type Normalized struct {
	Data       []byte
	MIMEType   string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Cropped    bool
}

// pcm is decoded audio as interleaved signed 16-bit samples.
type pcm struct {
	samples    []int
	sampleRate int
	channels   int
	// cropped is set when the source held more audio than was decoded.
	cropped bool
}

func (p *pcm) frames() int {
	return len(p.samples) / p.channels
}

// Normalizer decodes WAV, MP3 and Ogg Vorbis input and re-encodes it as
// 16-bit PCM WAV no longer than MaxDuration.
type Normalizer struct {
	maxDuration time.Duration
}

// NewNormalizer creates a Normalizer. A non-positive maxDuration selects
// DefaultMaxDuration.
func NewNormalizer(maxDuration time.Duration) *Normalizer {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Normalizer{maxDuration: maxDuration}
}

// MaxDuration returns the crop limit.
func (n *Normalizer) MaxDuration() time.Duration {
	return n.maxDuration
}

// Normalize decodes at most MaxDuration of data and encodes it as canonical
// WAV. Audio past the limit is never decoded. On failure no partial output
// is returned.
func (n *Normalizer) Normalize(data []byte) (out *Normalized, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrDecode)
	}

	// Codec libraries may panic on malformed streams.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: decoder panic: %v", domain.ErrDecode, r)
		}
	}()

	var p *pcm
	switch sniff(data) {
	case containerWAV:
		p, err = decodeWAV(data, n.maxDuration)
	case containerOgg:
		p, err = decodeOgg(data, n.maxDuration)
	case containerMP3:
		p, err = decodeMP3(data, n.maxDuration)
	default:
		return nil, fmt.Errorf("%w: unrecognized container", domain.ErrDecode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	if p.sampleRate <= 0 || p.channels <= 0 || p.frames() == 0 {
		return nil, fmt.Errorf("%w: no audio frames", domain.ErrDecode)
	}

	encoded, err := encodeWAV(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncode, err)
	}

	return &Normalized{
		Data:       encoded,
		MIMEType:   MIMEType,
		Duration:   time.Duration(p.frames()) * time.Second / time.Duration(p.sampleRate),
		SampleRate: p.sampleRate,
		Channels:   p.channels,
		Cropped:    p.cropped,
	}, nil
}

func encodeWAV(p *pcm) ([]byte, error) {
	ws := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(ws, p.sampleRate, outputBitDepth, p.channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: p.channels,
			SampleRate:  p.sampleRate,
		},
		Data:           p.samples,
		SourceBitDepth: outputBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize header: %w", err)
	}
	out, err := io.ReadAll(ws.Reader())
	if err != nil {
		return nil, fmt.Errorf("read encoded wav: %w", err)
	}
	return out, nil
}
