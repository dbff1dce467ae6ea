package server

import (
	"mapcheck/beatmap"
	"mapcheck/store"
)

type attributesDTO struct {
	Aim         float64 `json:"aim"`
	Speed       float64 `json:"speed"`
	ObjectCount int     `json:"object_count"`
	Circles     int     `json:"circles"`
	Sliders     int     `json:"sliders"`
	Spinners    int     `json:"spinners"`
	MaxCombo    int     `json:"max_combo"`
}

type unsnapDTO struct {
	Time    float64 `json:"time" example:"1010"`
	Kind    string  `json:"kind" example:"circle"`
	Edge    int     `json:"edge"`
	Unsnap  float64 `json:"unsnap" example:"-10"`
	Divisor int     `json:"divisor" doc:"Lowest divisor the edge snaps to, 0 when none"`
}

type stackDTO struct {
	Time  float64 `json:"time"`
	Kind  string  `json:"kind"`
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type analysisDTO struct {
	Checksum   string         `json:"checksum"`
	Artist     string         `json:"artist"`
	Title      string         `json:"title"`
	Version    string         `json:"version"`
	Mode       int            `json:"mode"`
	Stars      *float64       `json:"stars,omitempty"`
	Attributes *attributesDTO `json:"attributes,omitempty"`
	PlayTime   float64        `json:"play_time_ms"`
	DrainTime  float64        `json:"drain_time_ms"`
	Unsnaps    []unsnapDTO    `json:"unsnaps"`
	Stacks     []stackDTO     `json:"stacks"`
	StackError string         `json:"stack_error,omitempty"`
}

func newAnalysisDTO(checksum string, b *beatmap.Beatmap, unsnaps []beatmap.Unsnap) analysisDTO {
	out := analysisDTO{
		Checksum:  checksum,
		Artist:    b.Metadata.Artist,
		Title:     b.Metadata.Title,
		Version:   b.Metadata.Version,
		Mode:      int(b.General.GameMode()),
		PlayTime:  b.PlayTime(),
		DrainTime: b.DrainTime(),
		Unsnaps:   []unsnapDTO{},
		Stacks:    []stackDTO{},
	}
	if stars, ok := b.StarRating(); ok {
		out.Stars = &stars
	}
	if a, ok := b.Attributes(); ok {
		out.Attributes = &attributesDTO{
			Aim:         a.Aim,
			Speed:       a.Speed,
			ObjectCount: a.ObjectCount,
			Circles:     a.Circles,
			Sliders:     a.Sliders,
			Spinners:    a.Spinners,
			MaxCombo:    a.MaxCombo,
		}
	}
	if b.StackErr != nil {
		out.StackError = b.StackErr.Error()
	}
	for _, u := range unsnaps {
		out.Unsnaps = append(out.Unsnaps, unsnapDTO{
			Time:    u.Time,
			Kind:    u.Object.Kind().String(),
			Edge:    u.Edge,
			Unsnap:  u.Unsnap,
			Divisor: u.Divisor,
		})
	}
	for _, s := range b.Stackables() {
		if s.StackIndex() == 0 {
			continue
		}
		pos := b.PositionOf(s)
		out.Stacks = append(out.Stacks, stackDTO{
			Time:  s.Time(),
			Kind:  s.Kind().String(),
			Index: s.StackIndex(),
			X:     pos.X,
			Y:     pos.Y,
		})
	}
	return out
}

type ratingDTO = store.Rating
