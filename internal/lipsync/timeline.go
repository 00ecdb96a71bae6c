package lipsync

import "fmt"

// MouthShape maps named blend-shape parameters to weights in [0, 1].
type MouthShape map[string]float64

// Blend parameter names driven by the lip-sync timeline. A 3D avatar
// model is expected to expose morph targets with these names.
const (
	ParamMouthOpen = "mouth_open"
	ParamJawOpen   = "jaw_open"
)

// BlendParams lists every blend parameter a MouthShape can carry.
func BlendParams() []string {
	return []string{ParamMouthOpen, ParamJawOpen}
}

// visemeShapes holds per-viseme blend weights. Calibrated against the
// default avatar model; unknown visemes fall back to the zero shape.
var visemeShapes = map[Viseme]MouthShape{
	VisemeNeutral: {ParamMouthOpen: 0.0, ParamJawOpen: 0.0},
	VisemeAA:      {ParamMouthOpen: 0.8, ParamJawOpen: 0.6},
	VisemeAE:      {ParamMouthOpen: 0.5, ParamJawOpen: 0.4},
	VisemeAH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeEH:      {ParamMouthOpen: 0.4, ParamJawOpen: 0.3},
	VisemeEY:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeIY:      {ParamMouthOpen: 0.2, ParamJawOpen: 0.1},
	VisemeIH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeOW:      {ParamMouthOpen: 0.6, ParamJawOpen: 0.4},
	VisemeAO:      {ParamMouthOpen: 0.7, ParamJawOpen: 0.5},
	VisemeUW:      {ParamMouthOpen: 0.4, ParamJawOpen: 0.2},
	VisemeUH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeBP:      {ParamMouthOpen: 0.0, ParamJawOpen: 0.0},
	VisemeFV:      {ParamMouthOpen: 0.2, ParamJawOpen: 0.1},
	VisemeTH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeSZ:      {ParamMouthOpen: 0.2, ParamJawOpen: 0.1},
	VisemeSH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeCH:      {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeTD:      {ParamMouthOpen: 0.2, ParamJawOpen: 0.1},
	VisemeL:       {ParamMouthOpen: 0.3, ParamJawOpen: 0.2},
	VisemeR:       {ParamMouthOpen: 0.4, ParamJawOpen: 0.2},
	VisemeKG:      {ParamMouthOpen: 0.5, ParamJawOpen: 0.3},
	VisemeW:       {ParamMouthOpen: 0.3, ParamJawOpen: 0.1},
	VisemeY:       {ParamMouthOpen: 0.2, ParamJawOpen: 0.1},
	VisemeH:       {ParamMouthOpen: 0.4, ParamJawOpen: 0.3},
}

// ZeroShape returns the all-zero mouth shape (closed mouth).
func ZeroShape() MouthShape {
	return MouthShape{ParamMouthOpen: 0.0, ParamJawOpen: 0.0}
}

// MouthShapeFor returns a copy of the blend weights for the given
// viseme. Unknown visemes yield the zero shape.
func MouthShapeFor(v Viseme) MouthShape {
	src, ok := visemeShapes[v]
	if !ok {
		return ZeroShape()
	}
	out := make(MouthShape, len(src))
	for k, w := range src {
		out[k] = w
	}
	return out
}

// Keyframe is a mouth shape scheduled at an offset (seconds) from the
// start of the animation.
type Keyframe struct {
	Time  float64    `json:"time"`
	Shape MouthShape `json:"shape"`
}

// Timeline is an ordered keyframe sequence spanning Duration seconds.
type Timeline struct {
	Keyframes []Keyframe `json:"keyframes"`
	Duration  float64    `json:"duration"`
}

// BuildTimeline spreads the viseme sequence evenly across the given
// duration. An empty sequence yields a single closed-mouth keyframe at
// t=0. A negative duration is rejected.
func BuildTimeline(visemes []Viseme, duration float64) (Timeline, error) {
	if duration < 0 {
		return Timeline{}, fmt.Errorf("lipsync: negative duration %v", duration)
	}

	if len(visemes) == 0 {
		return Timeline{
			Keyframes: []Keyframe{{Time: 0, Shape: ZeroShape()}},
			Duration:  duration,
		}, nil
	}

	step := duration / float64(len(visemes))
	keyframes := make([]Keyframe, len(visemes))
	for i, v := range visemes {
		keyframes[i] = Keyframe{
			Time:  float64(i) * step,
			Shape: MouthShapeFor(v),
		}
	}

	return Timeline{Keyframes: keyframes, Duration: duration}, nil
}
