package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// probeOutput is the subset of `ffprobe -of json -show_streams -show_format`
// this package reads.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	Index       int    `json:"index"`
	CodecName   string `json:"codec_name"`
	CodecType   string `json:"codec_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TimeBase    string `json:"time_base"`
	StartPTS    *int64 `json:"start_pts"`
	DurationTS  *int64 `json:"duration_ts"`
	Duration    string `json:"duration"`
	NbFrames    string `json:"nb_frames"`
	Disposition struct {
		Default      int `json:"default"`
		AttachedPic  int `json:"attached_pic"`
		TimedThumbns int `json:"timed_thumbnails"`
	} `json:"disposition"`
}

// parseRational parses "1/30" style time bases.
func parseRational(s string) (Rational, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return Rational{}, fmt.Errorf("invalid time base %q", s)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("invalid time base %q: %w", s, err)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil || d == 0 {
		return Rational{}, fmt.Errorf("invalid time base %q", s)
	}
	return Rational{Num: n, Den: d}, nil
}

// secondsToTicks converts a decimal seconds string to ticks of tb.
func secondsToTicks(s string, tb Rational) int64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || tb.Num == 0 {
		return 0
	}
	return int64(v * float64(tb.Den) / float64(tb.Num))
}

// selectStream picks the best video stream from ffprobe output: cover art is
// skipped, the default-disposition stream wins, otherwise the largest frame.
func selectStream(out *probeOutput, path string) (*Stream, error) {
	var best *probeStream
	for i := range out.Streams {
		ps := &out.Streams[i]
		if ps.CodecType != "video" || ps.Disposition.AttachedPic == 1 || ps.Disposition.TimedThumbns == 1 {
			continue
		}
		if ps.Width <= 0 || ps.Height <= 0 {
			continue
		}
		switch {
		case best == nil:
			best = ps
		case ps.Disposition.Default == 1 && best.Disposition.Default != 1:
			best = ps
		case ps.Disposition.Default == best.Disposition.Default && ps.Width*ps.Height > best.Width*best.Height:
			best = ps
		}
	}
	if best == nil {
		return nil, ErrStreamNotFound
	}

	tb, err := parseRational(best.TimeBase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamNotFound, err)
	}

	s := &Stream{
		Path:     path,
		Index:    best.Index,
		Codec:    best.CodecName,
		Width:    best.Width,
		Height:   best.Height,
		TimeBase: tb,
	}
	if best.StartPTS != nil {
		s.StartTime = *best.StartPTS
	}
	switch {
	case best.DurationTS != nil && *best.DurationTS > 0:
		s.Duration = *best.DurationTS
	case best.Duration != "":
		s.Duration = secondsToTicks(best.Duration, tb)
	default:
		// Containers such as Matroska only report a format-level duration.
		s.Duration = secondsToTicks(out.Format.Duration, tb)
	}
	return s, nil
}

func parseProbe(data []byte, path string) (*Stream, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return selectStream(&out, path)
}
