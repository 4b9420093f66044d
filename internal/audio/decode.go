package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

type container int

const (
	containerUnknown container = iota
	containerWAV
	containerOgg
	containerMP3
)

func sniff(data []byte) container {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return containerWAV
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return containerOgg
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return containerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return containerMP3
	}
	return containerUnknown
}

// wavChunkSamples is the PCMBuffer read size for WAV input.
const wavChunkSamples = 16384

// frameLimit is the number of frames that fit in limit at sampleRate.
func frameLimit(limit time.Duration, sampleRate int) int {
	return max(1, int(limit.Milliseconds()*int64(sampleRate)/1000))
}

// decodeWAV reads at most limit of PCM audio from a RIFF/WAVE stream.
func decodeWAV(data []byte, limit time.Duration) (*pcm, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV encoding %d", dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locate PCM data: %w", err)
	}
	if dec.PCMChunk == nil {
		return nil, errors.New("missing PCM data")
	}

	p := &pcm{sampleRate: int(dec.SampleRate), channels: int(dec.NumChans)}
	if p.sampleRate <= 0 || p.channels <= 0 {
		return nil, errors.New("invalid WAV format")
	}
	depth := int(dec.BitDepth)
	want := frameLimit(limit, p.sampleRate) * p.channels

	chunk := make([]int, min(wavChunkSamples, want))
	buf := &audio.IntBuffer{}
	for len(p.samples) < want {
		buf.Data = chunk[:min(len(chunk), want-len(p.samples))]
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("read PCM data: %w", err)
		}
		if n <= 0 {
			break
		}
		for _, v := range buf.Data[:min(n, len(buf.Data))] {
			p.samples = append(p.samples, to16(v, depth))
		}
	}
	if len(p.samples) >= want {
		n, _ := dec.PCMBuffer(&audio.IntBuffer{Data: make([]int, 1)})
		p.cropped = n > 0
	}
	p.samples = p.samples[:len(p.samples)-len(p.samples)%p.channels]
	return p, nil
}

// to16 rescales a sample of the given bit depth to signed 16-bit.
func to16(v, depth int) int {
	switch depth {
	case 8:
		return (v - 128) << 8
	case 24:
		return v >> 8
	case 32:
		return v >> 16
	}
	return v
}

// decodeMP3 reads at most limit of audio from an MPEG Layer III stream.
func decodeMP3(data []byte, limit time.Duration) (*pcm, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open MP3 stream: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	const channels, frameBytes = 2, 4
	want := int64(frameLimit(limit, dec.SampleRate())) * frameBytes
	raw, err := io.ReadAll(io.LimitReader(dec, want))
	if err != nil {
		return nil, fmt.Errorf("read MP3 frames: %w", err)
	}

	p := &pcm{sampleRate: dec.SampleRate(), channels: channels}
	if int64(len(raw)) == want {
		var next [1]byte
		_, err := io.ReadFull(dec, next[:])
		p.cropped = err == nil
	}

	raw = raw[:len(raw)-len(raw)%frameBytes]
	p.samples = make([]int, len(raw)/2)
	for i := range p.samples {
		p.samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return p, nil
}

// decodeOgg reads at most limit of audio from an Ogg Vorbis stream.
func decodeOgg(data []byte, limit time.Duration) (*pcm, error) {
	dec, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open Ogg Vorbis stream: %w", err)
	}

	p := &pcm{sampleRate: dec.SampleRate(), channels: dec.Channels()}
	if p.sampleRate <= 0 || p.channels <= 0 {
		return nil, errors.New("invalid Vorbis header")
	}
	want := frameLimit(limit, p.sampleRate) * p.channels

	chunk := make([]float32, 16384)
	for len(p.samples) < want {
		n, err := dec.Read(chunk[:min(len(chunk), want-len(p.samples))])
		for _, s := range chunk[:n] {
			p.samples = append(p.samples, floatTo16(s))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read Ogg Vorbis data: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if len(p.samples) >= want {
		n, _ := dec.Read(make([]float32, p.channels))
		p.cropped = n > 0
	}
	p.samples = p.samples[:len(p.samples)-len(p.samples)%p.channels]
	return p, nil
}

func floatTo16(s float32) int {
	v := math.Round(float64(s) * 32767)
	return int(max(-32768, min(32767, v)))
}
