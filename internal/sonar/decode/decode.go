// Package decode reads the recorder's binary survey files: a small header
// file describing the survey, and one record stream per beam channel
// holding the raw ping returns.
//
// Record streams are forward-only. A corrupted record header is skipped by
// scanning ahead to the next record magic; a truncated payload ends the
// stream, keeping everything decoded before it.
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// Survey header file constants.
const (
	HeaderMagic = 0x53424852 // "SBHR"
	HeaderSize  = 16
)

// Record stream constants. All multi-byte fields are big-endian.
const (
	RecordMagic      = 0xC0DE
	RecordHeaderSize = 32

	// Field offsets within a record header.
	offMagic      = 0
	offSeq        = 2
	offTimeMillis = 6
	offEastingCM  = 10
	offNorthingCM = 14
	offFixQuality = 18
	offHeading    = 19
	offSpeed      = 20
	offGain       = 21
	offDepthCM    = 22
	offFreqKHz    = 24
	offPulseUS    = 26
	offPayloadLen = 28
	offChecksum   = 30

	// Physical units per LSB.
	headingDegPerLSB = 1.5
	speedMpsPerLSB   = 0.1
	cmPerMetre       = 100
)

// MaxPayloadLen bounds the per-ping sample count. Anything larger is
// treated as a corrupt length field rather than an allocation request.
const MaxPayloadLen = 16384

// MalformedRecordError reports a record header that failed validation.
// Offset is the byte position of the record start within the stream.
type MalformedRecordError struct {
	Offset int64
	Field  string
	Want   uint64
	Got    uint64
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at offset %d: %s: want %#x, got %#x",
		e.Offset, e.Field, e.Want, e.Got)
}

// TruncatedStreamError reports a record whose declared payload runs past
// the end of the stream.
type TruncatedStreamError struct {
	Offset    int64
	Declared  int
	Remaining int
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("truncated record stream at offset %d: payload declares %d bytes, %d remain",
		e.Offset, e.Declared, e.Remaining)
}

// DecodeHeader parses the survey header file.
func DecodeHeader(data []byte) (sonar.SurveyHeader, error) {
	var h sonar.SurveyHeader
	if len(data) < HeaderSize {
		return h, fmt.Errorf("header file too short: %d bytes, need %d", len(data), HeaderSize)
	}
	if magic := binary.BigEndian.Uint32(data[0:4]); magic != HeaderMagic {
		return h, fmt.Errorf("bad header magic: want %#x, got %#x", uint32(HeaderMagic), magic)
	}
	h.FormatVersion = binary.BigEndian.Uint16(data[4:6])
	h.ChannelCount = binary.BigEndian.Uint16(data[6:8])
	h.UnixTime = binary.BigEndian.Uint32(data[8:12])
	h.SoundSpeedMps = binary.BigEndian.Uint16(data[12:14])
	if h.ChannelCount == 0 || h.ChannelCount > 4 {
		return h, fmt.Errorf("header declares %d channels, expected 1-4", h.ChannelCount)
	}
	return h, nil
}

// headerChecksum sums the first 30 header bytes modulo 2^16.
func headerChecksum(hdr []byte) uint16 {
	var sum uint32
	for _, b := range hdr[:offChecksum] {
		sum += uint32(b)
	}
	return uint16(sum)
}

// parseRecordHeader validates one 32-byte record header starting at data[0].
// off is the record's position in the whole stream, used only for errors.
func parseRecordHeader(data []byte, off int64) (sonar.PingRecord, int, error) {
	var rec sonar.PingRecord
	if magic := binary.BigEndian.Uint16(data[offMagic:]); magic != RecordMagic {
		return rec, 0, &MalformedRecordError{Offset: off, Field: "magic", Want: RecordMagic, Got: uint64(magic)}
	}
	if want, got := headerChecksum(data), binary.BigEndian.Uint16(data[offChecksum:]); got != want {
		return rec, 0, &MalformedRecordError{Offset: off, Field: "checksum", Want: uint64(want), Got: uint64(got)}
	}
	payloadLen := int(binary.BigEndian.Uint16(data[offPayloadLen:]))
	if payloadLen > MaxPayloadLen {
		return rec, 0, &MalformedRecordError{Offset: off, Field: "payload length", Want: MaxPayloadLen, Got: uint64(payloadLen)}
	}

	rec.Seq = binary.BigEndian.Uint32(data[offSeq:])
	rec.TimestampMillis = binary.BigEndian.Uint32(data[offTimeMillis:])
	rec.Fix = sonar.Fix{
		Easting:  float64(int32(binary.BigEndian.Uint32(data[offEastingCM:]))) / cmPerMetre,
		Northing: float64(int32(binary.BigEndian.Uint32(data[offNorthingCM:]))) / cmPerMetre,
		Valid:    data[offFixQuality] > 0,
	}
	rec.HeadingDeg = float64(data[offHeading]) * headingDegPerLSB
	rec.SpeedMps = float64(data[offSpeed]) * speedMpsPerLSB
	rec.GainDB = data[offGain]
	rec.DepthM = float64(binary.BigEndian.Uint16(data[offDepthCM:])) / cmPerMetre
	rec.FreqKHz = binary.BigEndian.Uint16(data[offFreqKHz:])
	rec.PulseLenUS = binary.BigEndian.Uint16(data[offPulseUS:])
	return rec, payloadLen, nil
}

// nextMagic returns the offset of the next record magic in data at or
// after from, or -1 if none remains.
func nextMagic(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] == 0xC0 && data[i+1] == 0xDE {
			return i
		}
	}
	return -1
}

// DecodeStream parses one channel's record stream. Malformed records are
// skipped by resynchronizing on the next record magic; a truncated final
// record ends the decode with the records gathered so far. The returned
// error is nil unless the stream was truncated, in which case it is a
// *TruncatedStreamError and the returned slice still holds every record
// decoded before the cut.
func DecodeStream(data []byte, ch sonar.Channel) ([]sonar.PingRecord, error) {
	var records []sonar.PingRecord
	pos := 0
	for pos < len(data) {
		if len(data)-pos < RecordHeaderSize {
			// Trailing bytes too short for a header: stream ends cleanly
			// only when nothing is left, otherwise report the cut.
			if len(data)-pos > 0 {
				return records, &TruncatedStreamError{
					Offset:    int64(pos),
					Declared:  RecordHeaderSize,
					Remaining: len(data) - pos,
				}
			}
			break
		}

		rec, payloadLen, err := parseRecordHeader(data[pos:], int64(pos))
		if err != nil {
			monitoring.Logf("decode: channel %s: %v, resynchronizing", ch, err)
			next := nextMagic(data, pos+1)
			if next < 0 {
				break
			}
			pos = next
			continue
		}

		payloadStart := pos + RecordHeaderSize
		if remaining := len(data) - payloadStart; payloadLen > remaining {
			return records, &TruncatedStreamError{
				Offset:    int64(pos),
				Declared:  payloadLen,
				Remaining: remaining,
			}
		}

		rec.Channel = ch
		rec.Samples = make([]uint8, payloadLen)
		copy(rec.Samples, data[payloadStart:payloadStart+payloadLen])
		records = append(records, rec)
		pos = payloadStart + payloadLen
	}
	return records, nil
}
