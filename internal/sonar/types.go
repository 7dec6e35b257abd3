// Package sonar defines the shared data model for the sidescan survey
// pipeline: decoded ping records, navigation-resolved pings, and the 2-D
// scan matrices the correction and texture stages operate on.
package sonar

// Channel identifies a transducer beam within a survey. A Humminbird-class
// recorder writes one record stream per beam.
type Channel uint8

const (
	// BeamDownLow is the downward-looking low-frequency beam.
	BeamDownLow Channel = iota
	// BeamDownHigh is the downward-looking high-frequency beam.
	BeamDownHigh
	// BeamPort is the port-side sidescan beam.
	BeamPort
	// BeamStarboard is the starboard-side sidescan beam.
	BeamStarboard
)

// String returns the conventional short name for a beam channel.
func (c Channel) String() string {
	switch c {
	case BeamDownLow:
		return "down-low"
	case BeamDownHigh:
		return "down-high"
	case BeamPort:
		return "port"
	case BeamStarboard:
		return "starboard"
	}
	return "unknown"
}

// Fix is a raw position report carried in a ping record. Easting and
// northing are projected coordinates in metres. Valid is false when the
// receiver had no lock at transmit time.
type Fix struct {
	Easting  float64
	Northing float64
	Valid    bool
}

// PingRecord is one sonar transmit/receive event decoded from a record
// stream. Samples holds one unsigned intensity per range bin at
// acquisition time; its length always matches the record's declared
// payload length (the decoder rejects records where it does not).
type PingRecord struct {
	Seq             uint32
	TimestampMillis uint32
	Fix             Fix
	HeadingDeg      float64
	SpeedMps        float64
	DepthM          float64
	Channel         Channel
	GainDB          uint8
	PulseLenUS      uint16
	FreqKHz         uint16
	Samples         []uint8
}

// NavigatedPing is a PingRecord with a resolved position. Every
// NavigatedPing carries a usable Easting/Northing even when the original
// fix was missing; AlongTrackM is the cumulative track distance from the
// first ping of the channel. Downstream stages treat it as read-only.
type NavigatedPing struct {
	PingRecord
	Easting      float64
	Northing     float64
	AlongTrackM  float64
	Interpolated bool
}

// SurveyHeader is the decoded content of the instrument header file.
type SurveyHeader struct {
	FormatVersion uint16
	ChannelCount  uint16
	UnixTime      uint32
	SoundSpeedMps uint16
}
