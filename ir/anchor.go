package ir

import "github.com/npillmayer/arithm"

// Anchor is a mark-attachment point, in font design units (spec §3: "2D
// signed coordinate pair (x20 upem units), with optional contour-point
// index and optional device table"). Pos reuses arithm.Pair — the same
// "signed 2D coordinate" type the teacher's Hobby-spline adapter
// (backend/gfx/hobbyadapter/adapter.go) uses for points in its own
// coordinate space — rather than inventing a fresh struct{X,Y int16}.
type Anchor struct {
	Pos          arithm.Pair
	ContourPoint *int // nil if none given
	Device       *DeviceTable
}

// NewAnchor builds an Anchor from integer design-unit coordinates.
func NewAnchor(x, y int32) Anchor {
	return Anchor{Pos: arithm.Pair(complex(float64(x), float64(y)))}
}

// X and Y extract the anchor's coordinates as design units.
func (a Anchor) X() int32 { return int32(real(complex128(a.Pos))) }
func (a Anchor) Y() int32 { return int32(imag(complex128(a.Pos))) }

// DeviceTable is a per-PPEM hinting adjustment table. FEA rarely spells
// these out explicitly (they're almost always left to the binary
// serializer to synthesize from variable-font data); the grammar has no
// production for one, so this is carried only as a placeholder a
// TableBuilder-side consumer could fill in, never populated by this
// compiler.
type DeviceTable struct {
	StartSize, EndSize uint16
	DeltaValues        []int16
}

// ValueRecord is a GPOS value record: four signed deltas plus optional
// device tables (device tables are never populated by this compiler, for
// the same reason as DeviceTable above).
type ValueRecord struct {
	XPlacement, YPlacement int16
	XAdvance, YAdvance     int16
}

// IsZero reports whether every field is zero. Neither the validator nor
// the compiler raises a diagnostic for an all-zero record.
func (v ValueRecord) IsZero() bool {
	return v.XPlacement == 0 && v.YPlacement == 0 && v.XAdvance == 0 && v.YAdvance == 0
}
