// Package wav encodes and decodes minimal PCM WAV containers. The
// encoder produces the canonical 44-byte mono header used as the wire
// format for Whisper uploads; the file-backed Writer and Reader exist
// for saving captures to disk and loading replay fixtures.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// HeaderSize is the size of the canonical PCM WAV header in bytes.
const HeaderSize = 44

// Encode serializes an ordered frame sequence into a complete in-memory
// WAV file: 44-byte mono 16-bit header followed by the concatenated
// frame payloads. len(output) == HeaderSize + total payload bytes.
func Encode(frames []*rtc.AudioFrame, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	var dataSize int
	for _, frame := range frames {
		dataSize += len(frame.Data)
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+dataSize))
	if err := writeHeader(buf, uint32(sampleRate), 1, 16, uint32(dataSize)); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	for _, frame := range frames {
		if _, err := buf.Write(frame.Data); err != nil {
			return nil, fmt.Errorf("failed to write audio to buffer: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// writeHeader writes a complete PCM WAV header with the given data size.
func writeHeader(w io.Writer, sampleRate uint32, numChannels, bitsPerSample uint16, dataSize uint32) error {
	byteRate := sampleRate * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8

	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize+36); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("fmt ")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	// Audio format (PCM = 1)
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, numChannels); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, sampleRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, blockAlign); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, bitsPerSample); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, dataSize)
}

// Writer writes WAV files frame by frame. Sizes in the header are
// patched on Close once the payload length is known.
type Writer struct {
	file          *os.File
	sampleRate    uint32
	numChannels   uint16
	bitsPerSample uint16
	bytesWritten  uint32
}

// NewWriter creates a new WAV file writer.
func NewWriter(filename string, sampleRate uint32, numChannels, bitsPerSample uint16) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	writer := &Writer{
		file:          file,
		sampleRate:    sampleRate,
		numChannels:   numChannels,
		bitsPerSample: bitsPerSample,
	}

	// Write header with zero sizes; Close patches them.
	if err := writeHeader(file, sampleRate, numChannels, bitsPerSample, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	return writer, nil
}

// WriteFrame appends one audio frame's payload to the file.
func (w *Writer) WriteFrame(frame *rtc.AudioFrame) error {
	n, err := w.file.Write(frame.Data)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	w.bytesWritten += uint32(n)
	return nil
}

// Close finalizes the WAV file by updating the header with correct sizes
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}

	chunkSize := w.bytesWritten + 36

	if _, err := w.file.Seek(4, 0); err != nil {
		return fmt.Errorf("failed to seek to chunk size: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, chunkSize); err != nil {
		return fmt.Errorf("failed to write chunk size: %w", err)
	}

	if _, err := w.file.Seek(40, 0); err != nil {
		return fmt.Errorf("failed to seek to data size: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, w.bytesWritten); err != nil {
		return fmt.Errorf("failed to write data size: %w", err)
	}

	err := w.file.Close()
	w.file = nil
	return err
}
